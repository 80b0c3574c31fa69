package db

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"ainews/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres. TranslateError lets callers match
// gorm.ErrDuplicatedKey instead of driver specific error codes.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=ainews port=5432 sslmode=disable"
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	slog.Info("database connection established")
	return gdb, nil
}

// Migrate creates the schema plus the trigram index used by title search.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("create pg_trgm extension: %w", err)
	}
	err := gdb.AutoMigrate(
		&models.User{},
		&models.Story{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := gdb.Exec("CREATE INDEX IF NOT EXISTS idx_stories_title_trgm ON stories USING gin (title gin_trgm_ops)").Error; err != nil {
		return fmt.Errorf("create title index: %w", err)
	}
	slog.Info("database migration completed")
	return nil
}
