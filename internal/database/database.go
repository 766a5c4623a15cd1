package database

import (
	"fmt"

	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured store (embedded SQLite or MySQL) and runs
// auto-migration. Migration is idempotent; the engine owns its schema.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.New(mysql.Config{
			DSN:               cfg.Database.DSNValue(),
			DefaultStringSize: 191,
		})
	default:
		dialector = sqlite.Open(cfg.Database.SQLiteDSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Migrate runs GORM auto-migration for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SessionModel{},
		&models.ChallengeModel{},
		&models.ReportEventModel{},
		&models.CardModel{},
		&models.QuestionModel{},
		&models.StatementModel{},
	)
}
