package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/internal/config"
	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/logger"
	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/diewo77/go-repairs/internal/storage"
	"github.com/diewo77/go-repairs/view"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.App.LogLevel, cfg.App.Dev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if err := logger.LogConfig(log, &cfg.Server, &cfg.Database, &cfg.App, &cfg.Auth, &cfg.Redis, &cfg.Storage, &cfg.Tracking, &cfg.Metrics); err != nil {
		return err
	}
	if cfg.App.Dev {
		view.SetDev("view/templates")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn, cfg.Database, cfg.App.Migrations, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	revoker, err := newRevoker(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL, revoker)

	opts := AppOptions{}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.New()
	}
	if cfg.Storage.Endpoint != "" {
		logos, err := storage.NewMinIOStore(ctx, cfg.Storage, log)
		if err != nil {
			return err
		}
		opts.Logos = logos
	} else {
		log.Warn("MINIO_ENDPOINT not set, logo uploads disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(cfg, conn, tokens, log, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{srv}
	if opts.Metrics != nil {
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           opts.Metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		g.Go(func() error {
			log.Info("listening", zap.String("addr", s.Addr), zap.Bool("dev", cfg.App.Dev))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	if sqlDB, dbErr := conn.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	if err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// newRevoker prefers Redis so logouts hold across instances.
func newRevoker(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (auth.Revoker, error) {
	if cfg.Addr == "" {
		log.Info("REDIS_ADDR not set, revoked tokens kept in memory")
		return auth.NewMemoryRevoker(10 * time.Minute), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return auth.NewRedisRevoker(client, "repairs:revoked:"), nil
}
