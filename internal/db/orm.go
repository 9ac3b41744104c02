package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DavidDuveau/openjoconde-sub000/internal/config"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// InitORM opens the catalog database selected by cfg.Type and migrates it.
func InitORM(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logging.Info("Connected to catalog database via GORM", "type", cfg.Type)
	return db, nil
}

// Migrate creates or updates every catalog and sync table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(gormModels.All()...); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return nil
}
