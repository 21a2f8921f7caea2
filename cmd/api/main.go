package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/brokerledger/internal/balance"
	"github.com/MrJamesThe3rd/brokerledger/internal/chart"
	"github.com/MrJamesThe3rd/brokerledger/internal/config"
	"github.com/MrJamesThe3rd/brokerledger/internal/database"
	"github.com/MrJamesThe3rd/brokerledger/internal/guard"
	guardStore "github.com/MrJamesThe3rd/brokerledger/internal/guard/store"
	brokerHttp "github.com/MrJamesThe3rd/brokerledger/internal/http"
	accountHandler "github.com/MrJamesThe3rd/brokerledger/internal/http/account"
	ledgerHandler "github.com/MrJamesThe3rd/brokerledger/internal/http/ledger"
	paymentHandler "github.com/MrJamesThe3rd/brokerledger/internal/http/payment"
	reconHandler "github.com/MrJamesThe3rd/brokerledger/internal/http/reconciliation"
	seqHandler "github.com/MrJamesThe3rd/brokerledger/internal/http/sequence"
	"github.com/MrJamesThe3rd/brokerledger/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/brokerledger/internal/ledger/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/logging"
	"github.com/MrJamesThe3rd/brokerledger/internal/payment"
	paymentStore "github.com/MrJamesThe3rd/brokerledger/internal/payment/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/reconciliation"
	reconStore "github.com/MrJamesThe3rd/brokerledger/internal/reconciliation/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/sequence"
	seqStore "github.com/MrJamesThe3rd/brokerledger/internal/sequence/store"
	"github.com/MrJamesThe3rd/brokerledger/internal/statement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadChart(path string) (*chart.Chart, error) {
	if path == "" {
		return chart.Default()
	}

	return chart.LoadFile(path)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	c, err := loadChart(cfg.Ledger.ChartPath)
	if err != nil {
		return fmt.Errorf("loading chart: %w", err)
	}

	if err := database.Migrate(cfg.ConnectionString(), cfg.DB.Name); err != nil {
		return err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	var cache balance.Cache = balance.NopCache{}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		cache = balance.NewBreakerCache(balance.NewRedisCache(rdb, cfg.Redis.CacheTTL), balance.BreakerConfig{
			ConsecutiveFailures: cfg.Redis.BreakerFailures,
			Timeout:             cfg.Redis.BreakerTimeout,
		}, logger.Named("cache"))
		logger.Info("balance cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var (
		ledgerService   = ledger.NewService(ledgerStore.New(db), c.Accounts, ledger.WithInvalidator(cache), ledger.WithLogger(logger.Named("ledger")))
		balanceService  = balance.NewService(ledgerService, balance.WithCache(cache), balance.WithLogger(logger.Named("balance")))
		sequenceService = sequence.NewService(seqStore.New(db), c.Series)
		guardService    = guard.NewService(guardStore.New(db), c.Limits(), cfg.Ledger.ReservationTTL)
		paymentService  = payment.NewService(paymentStore.New(db), guardService, ledgerService, sequenceService, c.Templates,
			payment.WithLogger(logger.Named("payment")))
		reconService = reconciliation.NewService(reconStore.New(db), ledgerService,
			reconciliation.WithMatchTolerance(cfg.Ledger.MatchTolerance),
			reconciliation.WithLogger(logger.Named("reconciliation")))
	)

	router := brokerHttp.New(logger, brokerHttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, brokerHttp.Handlers{
		Payments:        paymentHandler.NewHandler(paymentService, logger),
		Ledger:          ledgerHandler.NewHandler(ledgerService, balanceService, logger),
		Accounts:        accountHandler.NewHandler(c.Accounts, logger),
		Sequences:       seqHandler.NewHandler(sequenceService, logger),
		Reconciliations: reconHandler.NewHandler(reconService, statement.NewParser(), logger),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("app", cfg.App.Name))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
