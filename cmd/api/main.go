package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"referralrewards/config"
	deliveryhttp "referralrewards/internal/delivery/http"
	"referralrewards/internal/delivery/http/controllers"
	"referralrewards/internal/delivery/http/middleware"
	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
	"referralrewards/internal/migrations"
	"referralrewards/internal/repository/postgres"
	"referralrewards/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := migrations.Up(ctx, db, logger); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(db, "referralrewards"))
	m := metrics.New(reg)

	policy := domain.StrictTransitions
	if cfg.AllowStatusOverride {
		policy = domain.OverrideTransitions
		logger.Warn("referral status overrides enabled: any status change except a no-op is accepted")
	}

	repos := postgres.NewRepositories(db)
	codes := services.NewCodeGenerator(repos.Customers, m)
	customerSvc := services.NewCustomerService(repos.Customers, codes, cfg.ContextTimeout)
	referralSvc := services.NewReferralService(repos.Customers, repos.Referrals, m, cfg.ContextTimeout)
	transitionSvc := services.NewTransitionService(postgres.NewTransactor(db), policy, cfg.DefaultRewardAmount, m, cfg.ContextTimeout)
	rewardSvc := services.NewRewardService(repos.Customers, repos.Rewards, m, cfg.ContextTimeout)
	importSvc := services.NewImportService(repos.Customers, codes, cfg.ImportBatchSize, m, logger)
	statsSvc := services.NewStatsService(postgres.NewStatsRepository(db), cfg.AverageBookingValue, cfg.ContextTimeout)

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Customers: controllers.NewCustomerController(logger, customerSvc, rewardSvc, importSvc),
		Referrals: controllers.NewReferralController(logger, referralSvc, transitionSvc, customerSvc),
		Rewards:   controllers.NewRewardController(logger, rewardSvc),
		Stats:     controllers.NewStatsController(logger, statsSvc, db),
	}, m.Handler())

	var handler http.Handler = mux
	handler = middleware.MetricsMiddleware(m, handler)
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
