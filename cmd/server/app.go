package main

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/internal/config"
	"github.com/diewo77/go-repairs/internal/db"
	"github.com/diewo77/go-repairs/internal/handlers"
	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/diewo77/go-repairs/internal/middleware"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/diewo77/go-repairs/internal/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// actorCacheTTL bounds how long a resolved tenant is reused across requests.
const actorCacheTTL = 30 * time.Second

// App is the main application handler that sets up all routes.
type App struct {
	router *chi.Mux
	db     *gorm.DB
	log    *zap.Logger

	tokens  *auth.Manager
	gate    *policy.AuthGate
	limiter *middleware.IPRateLimiter
	metrics *metrics.Metrics

	establishments *services.EstablishmentService

	auth          *handlers.AuthHandler
	track         *handlers.TrackHandler
	establishment *handlers.EstablishmentHandler
	repairs       *handlers.RepairHandler
	clients       *handlers.ClientHandler
	quotes        *handlers.QuoteHandler
	admin         *handlers.AdminHandler
}

// AppOptions carries the optional collaborators of NewApp.
type AppOptions struct {
	Logos   storage.LogoStore
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// NewApp builds services and handlers on conn and configures all routes.
func NewApp(cfg *config.Config, conn *gorm.DB, tokens *auth.Manager, log *zap.Logger, opts AppOptions) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	svcOpts := services.Options{StoreTimeout: cfg.Database.StoreTimeout, Metrics: opts.Metrics, Now: now}

	actors := policy.NewActorResolver(conn, policy.NewEmailAllowlist(cfg.Admin.Emails), actorCacheTTL, cfg.Database.StoreTimeout)
	g := policy.NewAuthGate(actors)
	proxies, err := cfg.Tracking.TrustedProxyNets()
	if err != nil {
		log.Warn("ignoring trusted proxies", zap.Error(err))
	}

	repairs := services.NewRepairService(conn, g, svcOpts)
	establishments := services.NewEstablishmentService(conn, g, svcOpts)

	app := &App{
		router:         chi.NewRouter(),
		db:             conn,
		log:            log,
		tokens:         tokens,
		gate:           g,
		limiter:        middleware.NewIPRateLimiter(cfg.Tracking.RatePerSecond, cfg.Tracking.Burst, cfg.Tracking.LimiterTTL, opts.Metrics).TrustProxies(proxies),
		metrics:        opts.Metrics,
		establishments: establishments,
		auth:           handlers.NewAuthHandler(services.NewAccountService(conn, cfg.App.TrialDays, svcOpts), tokens, cfg.Auth.CookieSecure),
		track:          handlers.NewTrackHandler(services.NewTrackingService(repairs, opts.Metrics)),
		establishment:  handlers.NewEstablishmentHandler(establishments, opts.Logos, cfg.App.TrialDays),
		repairs:        handlers.NewRepairHandler(repairs),
		clients:        handlers.NewClientHandler(services.NewClientService(conn, g, svcOpts)),
		quotes:         handlers.NewQuoteHandler(services.NewQuoteService(conn, g, svcOpts)),
		admin:          handlers.NewAdminHandler(establishments),
	}
	app.setupRoutes(now)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) setupRoutes(now func() time.Time) {
	r := a.router
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(a.log, a.metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prefs)
	r.Use(a.tokens.Middleware)

	// Public routes
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/track", http.StatusFound)
	})
	r.Get("/health", handlers.Health)
	r.Get("/healthz", handlers.Healthz(func(ctx context.Context) error { return db.Ping(ctx, a.db) }))
	r.Group(func(r chi.Router) {
		r.Use(a.limiter.Middleware)
		r.Get("/track", a.track.Lookup)
		r.Get("/track/{code}", a.track.Show)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", a.auth.Signup)
		r.Post("/auth/login", a.auth.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/auth/logout", a.auth.Logout)

			r.Get("/establishment", a.establishment.Get)
			r.Post("/establishment", a.establishment.Create)
			r.Put("/establishment", a.establishment.Update)
			r.Post("/establishment/logo", a.establishment.UploadLogo)

			// Tenant resources: writes need an active subscription
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActiveSubscription(a.establishments, now))

				r.Route("/repairs", func(r chi.Router) {
					r.Post("/", a.repairs.Create)
					r.Get("/", a.repairs.List)
					r.Get("/stats", a.repairs.Stats)
					r.Get("/{id}", a.repairs.Get)
					r.Patch("/{id}/status", a.repairs.UpdateStatus)
					r.Post("/{id}/payment", a.repairs.RecordPayment)
					r.Get("/{id}/timeline", a.repairs.Timeline)
				})
				r.Route("/clients", func(r chi.Router) {
					r.Post("/", a.clients.Create)
					r.Get("/", a.clients.List)
					r.Get("/{id}", a.clients.Get)
					r.Put("/{id}", a.clients.Update)
					r.Delete("/{id}", a.clients.Delete)
				})
				r.Route("/quotes", func(r chi.Router) {
					r.Post("/", a.quotes.Create)
					r.Get("/", a.quotes.List)
					r.Get("/{id}", a.quotes.Get)
					r.Patch("/{id}/status", a.quotes.UpdateStatus)
					r.Delete("/{id}", a.quotes.Delete)
				})
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(a.gate.RequireAdmin)
				r.Get("/establishments", a.admin.ListEstablishments)
				r.Put("/establishments/{id}/subscription", a.admin.OverrideSubscription)
			})
		})
	})
}
