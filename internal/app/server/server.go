package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrpay/internal/domain/contract"
	"hrpay/internal/domain/deduction"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/domain/staff"
	"hrpay/internal/platform/config"
	"hrpay/internal/platform/db"
	"hrpay/internal/platform/email"
	"hrpay/internal/platform/jobs"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	audithandler "hrpay/internal/transport/http/handlers/audit"
	contracthandler "hrpay/internal/transport/http/handlers/contracts"
	deductionhandler "hrpay/internal/transport/http/handlers/deductions"
	jobshandler "hrpay/internal/transport/http/handlers/jobs"
	payrollhandler "hrpay/internal/transport/http/handlers/payroll"
	staffhandler "hrpay/internal/transport/http/handlers/staff"
	"hrpay/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Collector
	Deductions *deduction.Service
	Staff      *staff.Service
	Contracts  *contract.Service
	Payrolls   *payroll.Service
	Jobs       *jobs.Service
	Router     http.Handler

	stores Stores
	pool   *pgxpool.Pool
}

// Open connects to Postgres, applies pending migrations when configured and
// builds the App on top of the pool.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	app := New(cfg, PostgresStores(pool), logger)
	app.pool = pool
	return app, nil
}

// New wires services and routes over stores.
func New(cfg config.Config, stores Stores, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	collector := metrics.New()

	var notifier contract.Notifier = contract.LogNotifier{Logger: logger}
	if cfg.EmailEnabled {
		notifier = email.ReminderNotifier{Mailer: email.New(cfg), From: cfg.EmailFrom, HR: cfg.HRNotifyEmail}
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    collector,
		Deductions: deduction.NewService(stores.Deductions, logger),
		Staff:      staff.NewService(stores.Staff, logger),
		Contracts:  contract.NewService(stores.Contracts, notifier, stores.Audit, logger),
		Payrolls:   payroll.NewService(stores.Payrolls, stores.Audit, logger, cfg.PayrollWorkers).WithObserver(collector),
		stores:     stores,
	}
	app.Jobs = jobs.New(stores.Runs, app.Payrolls, app.Contracts, jobs.Schedule{
		PayrollInterval:     cfg.PayrollRunInterval,
		SweepInterval:       cfg.ContractSweepInterval,
		RenewalReminderDays: cfg.RenewalReminderDays,
	}, logger).WithObserver(collector)
	app.Router = app.routes()
	return app
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(chimw.RealIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Logger, a.Metrics))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	if cfg.RateLimitPerMinute > 0 {
		router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.stores.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		deductionhandler.NewHandler(a.Deductions).RegisterRoutes(r)
		contracthandler.NewHandler(a.Contracts, a.Deductions).RegisterRoutes(r)
		staffhandler.NewHandler(a.Staff, a.Contracts, a.Payrolls).RegisterRoutes(r)
		payrollhandler.NewHandler(a.Payrolls, a.Jobs).RegisterRoutes(r)
		jobshandler.NewHandler(a.Jobs).RegisterRoutes(r)
		audithandler.NewHandler(a.stores.Audit).RegisterRoutes(r)
	})
	return router
}

// Serve runs the background jobs and the HTTP server until ctx is cancelled,
// then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	a.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("hrpay server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
