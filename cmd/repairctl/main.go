// Command repairctl is the operator CLI: migrations, demo data, subscription
// support and code lookups against the configured database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/diewo77/go-repairs/internal/config"
	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/logger"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd(openEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

// appEnv is what every command works with.
type appEnv struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	accounts       *services.AccountService
	establishments *services.EstablishmentService
	repairs        *services.RepairService
	tracking       *services.TrackingService
}

func (e *appEnv) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Sync()
}

// openEnv connects using the process environment.
func openEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.App.LogLevel, true)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return newAppEnv(cfg, log, conn), nil
}

func newAppEnv(cfg *config.Config, log *zap.Logger, conn *gorm.DB) *appEnv {
	opts := services.Options{StoreTimeout: cfg.Database.StoreTimeout}
	actors := policy.NewActorResolver(conn, policy.NewEmailAllowlist(cfg.Admin.Emails), time.Minute, cfg.Database.StoreTimeout)
	g := policy.NewAuthGate(actors)
	repairs := services.NewRepairService(conn, g, opts)
	return &appEnv{
		cfg:            cfg,
		log:            log,
		db:             conn,
		accounts:       services.NewAccountService(conn, cfg.App.TrialDays, opts),
		establishments: services.NewEstablishmentService(conn, g, opts),
		repairs:        repairs,
		tracking:       services.NewTrackingService(repairs, nil),
	}
}
