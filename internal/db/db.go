// Package db opens the gorm connection and keeps the schema up to date.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-repairs/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects using cfg, retrying while the database is still starting.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	var (
		conn *gorm.DB
		err  error
	)
	for attempt := 1; attempt <= retries; attempt++ {
		conn, err = open(cfg)
		if err == nil {
			err = Ping(ctx, conn)
		}
		if err == nil {
			break
		}
		log.Warn("database not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", retries),
			zap.Error(err),
		)
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", retries, err)
	}
	log.Info("database connected",
		zap.String("driver", cfg.Driver),
		zap.String("host", cfg.Host),
		zap.String("dbname", cfg.DBName),
	)
	return conn, nil
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	level := gormlogger.Silent
	if cfg.Debug {
		level = gormlogger.Info
	}
	gcfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	}
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath, gcfg)
	default:
		return gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	}
}

// OpenSQLite opens a sqlite database; dsn may be a path or a file: URI such as
// "file:name?mode=memory&cache=shared". A nil gcfg gets the package defaults.
func OpenSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent), TranslateError: true}
	}
	conn, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps shared in-memory databases consistent
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// Ping checks connectivity.
func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
