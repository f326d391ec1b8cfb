package common

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pressroom/logger"
)

// ConnectDb opens the content database selected by cfg.DBDriver.
func ConnectDb(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		// foreign keys are needed for the SET NULL / CASCADE rules
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", cfg.DBDriver, err)
	}

	logger.Log.Info("database opened", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// ConnectAnalyticsDb opens the separate analytics database. An empty path
// disables analytics and returns nil.
func ConnectAnalyticsDb(path string) *gorm.DB {
	if path == "" {
		logger.Log.Info("ANALYTICS_DB not set, analytics disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		logger.Log.Error("open analytics db", zap.Error(err))
		return nil
	}

	logger.Log.Info("analytics db opened", zap.String("path", path))
	return db
}
