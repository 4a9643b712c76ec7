package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-repairs/internal/config"
	"github.com/diewo77/go-repairs/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// postgres driver and file source for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every persisted entity, parents first.
func Models() []any {
	return []any{
		&models.User{},
		&models.Establishment{},
		&models.Client{},
		&models.Repair{},
		&models.Quote{},
		&models.QuoteSequence{},
	}
}

// Migrate applies the SQL migrations when MIGRATIONS is enabled on postgres and
// falls back to AutoMigrate otherwise.
func Migrate(conn *gorm.DB, cfg config.DatabaseConfig, sqlMigrations bool, log *zap.Logger) error {
	if sqlMigrations && cfg.Driver == "postgres" {
		log.Info("running sql migrations", zap.String("path", cfg.MigrationsPath))
		return runSQLMigrations(cfg.MigrationsPath, cfg.URL())
	}
	if sqlMigrations {
		log.Warn("sql migrations only target postgres, using AutoMigrate", zap.String("driver", cfg.Driver))
	}
	return AutoMigrate(conn)
}

// AutoMigrate creates or updates tables from the models.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "establishments", "clients", "repairs", "quotes", "quote_sequences"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(path, url string) error {
	m, err := migrate.New("file://"+path, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
