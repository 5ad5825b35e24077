package database

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/storewatch/backend/internal/config"
	"github.com/storewatch/backend/internal/models"
)

//go:embed seed/branches.yaml
var branchSeed []byte

func Connect(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connected", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	err := db.AutoMigrate(
		&models.Branch{},
		&models.UserProfile{},
		&models.Incident{},
		&models.IncidentStatusChange{},
		&models.SettingsRecord{},
		&models.AIUsageRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

type branchSeedFile struct {
	Branches []models.Branch `yaml:"branches"`
}

// ParseBranchSeed decodes a branch seed document and rejects blank or repeated ids.
func ParseBranchSeed(data []byte) ([]models.Branch, error) {
	var file branchSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode branch seed: %w", err)
	}
	seen := make(map[string]bool, len(file.Branches))
	for i := range file.Branches {
		b := &file.Branches[i]
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			return nil, fmt.Errorf("branch seed entry %d has no id", i)
		}
		if seen[b.ID] {
			return nil, fmt.Errorf("branch seed repeats id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return file.Branches, nil
}

// Seed inserts the bundled branches and the default incident settings. Existing rows are kept.
func Seed(db *gorm.DB, log *zap.Logger) error {
	log.Info("seeding database")

	branches, err := ParseBranchSeed(branchSeed)
	if err != nil {
		return err
	}
	if len(branches) > 0 {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&branches)
		if result.Error != nil {
			return fmt.Errorf("failed to seed branches: %w", result.Error)
		}
		log.Info("branches seeded", zap.Int64("inserted", result.RowsAffected), zap.Int("bundled", len(branches)))
	}

	record, err := models.NewSettingsRecord(models.DefaultIncidentSettings())
	if err != nil {
		return err
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error; err != nil {
		return fmt.Errorf("failed to seed incident settings: %w", err)
	}

	log.Info("database seeding completed")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
