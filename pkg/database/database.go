package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpro/wealthtrack/pkg/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned by the caller
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("user already exists")
)

// InitDB initializes the database connection and runs migrations
// Supports both PostgreSQL (via databaseURL) and SQLite (via dbPath for local dev)
func InitDB(dbPath, databaseURL string, log zerolog.Logger, verbose bool) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if verbose {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	if databaseURL != "" {
		log.Info().Msg("Using PostgreSQL database")

		// Handle Vercel Postgres format: postgres:// -> postgresql://
		if strings.HasPrefix(databaseURL, "postgres://") {
			databaseURL = strings.Replace(databaseURL, "postgres://", "postgresql://", 1)
		}

		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	} else {
		log.Info().Str("path", dbPath).Msg("Using SQLite database")

		if dbPath != ":memory:" {
			dir := filepath.Dir(dbPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		db, err = gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}

		// a single connection keeps :memory: databases and the fk pragma consistent
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access SQLite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs auto migrations for all entities
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Portfolio{},
		&models.Transaction{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
