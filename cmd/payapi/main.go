package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"payapi/internal/config"
	"payapi/internal/database"
	"payapi/internal/handler"
	"payapi/internal/keylock"
	"payapi/internal/mw"
	"payapi/internal/service"
	"payapi/internal/storage/postgres"
)

func main() {
	cfg := config.New()

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatal("failed to init DB schema", zap.Error(err))
	}

	// Stores
	walletStore := postgres.NewWalletStore(db)
	orderStore := postgres.NewOrderStore(db)
	userStore := postgres.NewUserStore(db)

	// One lock policy shared by wallet and order serialization.
	locks := keylock.New(cfg.LockTimeout)
	if !locks.Enabled() {
		log.Warn("per-key locking disabled, balance correctness depends on store isolation")
	}

	// Services
	authSvc := service.NewAuthService(userStore, log)
	walletSvc := service.NewWalletService(walletStore, locks, log)
	orderSvc := service.NewOrderService(orderStore, locks, service.OrderConfig{
		StrictIdempotency:   cfg.StrictIdempotencyCheck,
		SettlementWindow:    cfg.SettlementWindow,
		GracefulDegradation: cfg.GracefulDegradation,
	}, log)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(mw.RequestLogger(log))
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", handler.HealthHandler())
	r.Get("/ready", handler.ReadyHandler(db))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/auth/register", handler.RegisterHandler(authSvc))
	r.Post("/api/auth/login", handler.LoginHandler(authSvc, cfg.JWTSecret))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/users", handler.ListUsersHandler(authSvc))
		r.Get("/api/users/{userID}", handler.GetUserHandler(authSvc))

		r.Post("/api/orders", handler.CreateOrderHandler(orderSvc))
		r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))

		r.Get("/api/wallet/{customerID}", handler.GetWalletHandler(walletSvc))
		r.Post("/api/wallet/{customerID}/credit", handler.CreditWalletHandler(walletSvc))
		r.Post("/api/wallet/{customerID}/debit", handler.DebitWalletHandler(walletSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Info("starting server",
		zap.String("addr", cfg.RunAddress),
		zap.Bool("strict_idempotency", cfg.StrictIdempotencyCheck),
		zap.Duration("settlement_window", cfg.SettlementWindow),
		zap.Bool("graceful_degradation", cfg.GracefulDegradation),
		zap.Duration("lock_timeout", cfg.LockTimeout))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
