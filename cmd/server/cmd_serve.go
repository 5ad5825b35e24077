package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storewatch/backend/internal/access"
	"github.com/storewatch/backend/internal/ai"
	"github.com/storewatch/backend/internal/config"
	"github.com/storewatch/backend/internal/database"
	"github.com/storewatch/backend/internal/handlers"
	"github.com/storewatch/backend/internal/middleware"
	"github.com/storewatch/backend/internal/repository"
	"github.com/storewatch/backend/internal/services"
	"github.com/storewatch/backend/internal/storage"
	"github.com/storewatch/backend/internal/triage"
	"github.com/storewatch/backend/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	if cfg.Seed.OnStart {
		if err := database.Seed(db, log); err != nil {
			log.Warn("failed to seed database", zap.Error(err))
		}
	}

	redisClient, err := database.ConnectRedis(&cfg.Redis, log)
	if err != nil {
		return err
	}
	defer database.CloseRedis(redisClient)
	sessionStore := database.NewSessionStore(redisClient)

	// Object storage is optional; without it evidence stays inline or on external URLs.
	var (
		objects     storage.ObjectReader
		signer      services.MediaURLSigner
		evidence    services.EvidenceStore
		storagePing handlers.Pinger
	)
	minioStorage, err := storage.NewMinIOStorage(ctx, &cfg.MinIO, log)
	if err != nil {
		log.Warn("object storage unavailable, uploads disabled", zap.Error(err))
	} else {
		objects, signer, evidence, storagePing = minioStorage, minioStorage, minioStorage, minioStorage
	}
	mediaResolver := storage.NewResolver(objects, cfg.GenAI.MediaFetchTimeout, cfg.MinIO.MaxObjectMB<<20)

	var (
		classifier  triage.Classifier = triage.NewRuleClassifier()
		transcriber services.Transcriber
		modelNames  = services.AnalysisModels{Classify: "keyword-rules"}
	)
	if cfg.GenAI.Enabled() {
		gemini, err := ai.NewGeminiClient(ctx, cfg.GenAI, mediaResolver, log)
		if err != nil {
			return err
		}
		classifier, transcriber = gemini, gemini
		modelNames = services.AnalysisModels{Classify: gemini.Model(), Transcribe: gemini.TranscribeModel()}
		log.Info("inference enabled", zap.String("model", gemini.Model()))
	} else {
		log.Info("no GenAI API key configured, classifying with keyword rules")
	}

	policy, err := access.NewPolicy()
	if err != nil {
		return err
	}
	scope := access.NewResolver()
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHour, cfg.JWT.Issuer)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// Initialize services
	assembler := triage.NewAssembler(branchRepo, settingsRepo)
	statusManager := services.NewStatusManager(incidentRepo, scope, log)
	usageService := services.NewUsageService(usageRepo, log)
	userService := services.NewUserService(userRepo, jwtManager, sessionStore, log)
	incidentService := services.NewIncidentService(incidentRepo, branchRepo, assembler, statusManager, scope, signer, cfg.Server.ExportLimit, log)
	analysisService := services.NewAnalysisService(classifier, transcriber, settingsRepo, usageService, modelNames, log)
	settingsService := services.NewSettingsService(settingsRepo, log)
	branchService := services.NewBranchService(branchRepo, scope, signer, log)
	mediaService := services.NewMediaService(evidence, cfg.MinIO.MaxObjectMB<<20, log)

	digest := services.NewTriageDigest(incidentRepo, cfg.Digest.Schedule, log)
	if cfg.Digest.Enabled {
		if err := digest.Start(ctx); err != nil {
			return err
		}
		defer digest.Stop()
	}

	h := &appHandlers{
		health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": databasePinger(db),
			"redis":    sessionStore,
			"storage":  storagePing,
		}),
		user:     handlers.NewUserHandler(userService),
		incident: handlers.NewIncidentHandler(incidentService),
		analysis: handlers.NewAnalysisHandler(analysisService),
		branch:   handlers.NewBranchHandler(branchService),
		settings: handlers.NewSettingsHandler(settingsService),
		media:    handlers.NewMediaHandler(mediaService),
		usage:    handlers.NewUsageHandler(usageService),
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore, userRepo, policy)

	app := newApp(cfg, log)
	registerRoutes(app, h, authMiddleware)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Info("server starting", zap.String("addr", addr), zap.String("version", version))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func newApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                 "StoreWatch Backend",
		ErrorHandler:            customErrorHandler,
		BodyLimit:               cfg.Server.BodyLimitMB * 1024 * 1024,
		EnableTrustedProxyCheck: len(cfg.Server.TrustedHosts) > 0,
		TrustedProxies:          cfg.Server.TrustedHosts,
		ProxyHeader:             fiber.HeaderXForwardedFor,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))
	app.Use(middleware.ActionLogger(middleware.ActionLoggerConfig{
		Enabled:     true,
		SkipPaths:   []string{"/api/v1/health", "/api/v1/ready"},
		SkipMethods: []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions},
		Logger:      log,
	}))

	return app
}

func databasePinger(db *gorm.DB) handlers.PingFunc {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return utils.ErrorResponse(c, code, message)
}
