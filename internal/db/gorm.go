package db

import (
	"fmt"
	"time"

	"github.com/sudanchapagain/event-booking-system/internal/config"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB wraps the GORM database instance
type GormDB struct {
	*gorm.DB
}

// NewGorm opens the Postgres connection, enables the extensions the app
// relies on and migrates the schema.
func NewGorm(cfg *config.Config, log *logrus.Entry) (*GormDB, error) {
	logLevel := logger.Warn
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// pg_trgm backs explore search
	for _, ext := range []string{"pg_trgm"} {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS " + ext).Error; err != nil {
			return nil, fmt.Errorf("failed to enable %s extension: %w", ext, err)
		}
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Event{},
		&models.EventDate{},
		&models.Attendance{},
		&models.TicketSale{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Trigram indexes for explore search; GORM has no syntax for these
	for _, column := range []string{"title", "location", "description"} {
		err = db.Exec(fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_events_%s_trgm ON events USING gin (%s gin_trgm_ops)",
			column, column,
		)).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create trigram index on %s: %w", column, err)
		}
	}

	log.Info("Database connected and migrated")

	return &GormDB{db}, nil
}

// Close closes the database connection
func (db *GormDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
