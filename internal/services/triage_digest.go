package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/storewatch/backend/internal/models"
	"github.com/storewatch/backend/internal/repository"
)

// TriageDigest periodically logs how many incidents are still unresolved per priority.
type TriageDigest interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context) (*models.IncidentStats, error)
}

type triageDigest struct {
	incidentRepo repository.IncidentRepository
	schedule     string
	log          *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewTriageDigest(incidentRepo repository.IncidentRepository, schedule string, log *zap.Logger) TriageDigest {
	if schedule == "" {
		schedule = "@every 15m"
	}
	return &triageDigest{
		incidentRepo: incidentRepo,
		schedule:     schedule,
		log:          log,
	}
}

func (d *triageDigest) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	logger := cronLogger{d.log.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(d.schedule, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Error("triage digest failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", d.schedule, err)
	}

	c.Start()
	d.cron = c
	d.running = true
	d.log.Info("triage digest started", zap.String("schedule", d.schedule))
	return nil
}

// Stop halts the schedule and waits for a running digest to finish.
func (d *triageDigest) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	<-d.cron.Stop().Done()
	d.running = false
	d.log.Info("triage digest stopped")
}

func (d *triageDigest) RunOnce(ctx context.Context) (*models.IncidentStats, error) {
	counts, err := d.incidentRepo.CountUnresolvedByPriority(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.IncidentStats{ByPriority: make(map[models.Priority]int64, len(models.AllPriorities))}
	for _, p := range models.AllPriorities {
		stats.ByPriority[p] = counts[p]
		stats.Unresolved += counts[p]
	}

	d.log.Info("triage digest",
		zap.Int64("unresolved", stats.Unresolved),
		zap.Int64("high", stats.ByPriority[models.PriorityHigh]),
		zap.Int64("medium", stats.ByPriority[models.PriorityMedium]),
		zap.Int64("low", stats.ByPriority[models.PriorityLow]),
	)
	return stats, nil
}

// cronLogger routes scheduler messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
