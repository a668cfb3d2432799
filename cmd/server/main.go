// Package main is the entry point for the stock ledger API server.
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

	"github.com/gin-gonic/gin"

	"stockledger/internal/config"
	"stockledger/internal/core/security"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/opname"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/cache"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/internal/infrastructure/storage/postgres/opname_repo"
	"stockledger/internal/infrastructure/storage/postgres/report_repo"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stockledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	postgres.LogPoolStats(ctx, pool.Pool)

	txManager := postgres.NewTxManager(pool, cfg.TxStatementTimeout)
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit", "error", err)
	}
	idempotency := postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL)

	brands := cache.NewBrandCache(catalog_repo.NewBrandRepo(txManager), pool.Pool)
	if err := brands.Start(ctx); err != nil {
		log.Fatalw("failed to start brand cache", "error", err)
	}
	defer brands.Stop()

	// --- Domain services ---
	catalogService := catalog.NewService(
		catalog_repo.NewProductRepo(txManager),
		brands,
		txManager,
		auditService,
		catalog.Config{DefaultPiecesPerBox: cfg.DefaultPiecesPerBox},
	)
	ledgerService := ledger.NewService(
		ledger_repo.NewEntryRepo(txManager),
		txManager,
		auditService,
		ledger.Config{PageLimit: cfg.HistoryPageLimit},
	)
	opnameService := opname.NewService(
		opname_repo.NewRecordRepo(txManager),
		txManager,
		auditService,
		opname.Config{Location: cfg.Location},
	)
	reportService := reports.NewService(
		report_repo.NewReportRepo(txManager),
		reports.Config{Location: cfg.Location},
	)
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		txManager,
		auth.NewPasswordHasher(cfg.BcryptCost),
	)

	policy, err := security.NewPolicy(security.DefaultRules())
	if err != nil {
		log.Fatalw("failed to compile access policy", "error", err)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		DB:          pool,
		Policy:      policy,
		Location:    cfg.Location,
		Development: cfg.LogDevelopment,
		Actors:      authService,
		Idempotency: idempotency,
		Catalog:     catalogService,
		Ledger:      ledgerService,
		Opname:      opnameService,
		Reports:     reportService,
		Audit:       auditService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTPAddr, "timezone", cfg.Location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
