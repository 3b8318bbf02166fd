package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom-hq/stockroom/internal/app"
	"github.com/stockroom-hq/stockroom/internal/auth"
	"github.com/stockroom-hq/stockroom/internal/catalog/categories"
	"github.com/stockroom-hq/stockroom/internal/catalog/products"
	"github.com/stockroom-hq/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/integration"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/platform/cache"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/internal/restock"
	"github.com/stockroom-hq/stockroom/internal/sales"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis is optional: when it is unreachable, dashboard caching is
	// disabled and the app keeps serving from Postgres.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, tokenIssuer)

	restockCache := restock.NewCache(redisClient, cfg.CacheTTL)
	restockRepo := restock.NewRepository(pool)
	restockService := restock.NewService(logger, restockRepo, restockCache)
	restockHandler := restock.NewHandler(logger, restockService)

	hooks := integration.NewHooks(logger, restockService, jobsClient, authRepo).
		WithAudit(shared.NewAuditLogger(pool)).
		WithMetrics(metrics)

	categoryService := categories.NewService(categories.NewRepository(pool))
	categoryHandler := categories.NewHandler(logger, categoryService)

	supplierService := suppliers.NewService(suppliers.NewRepository(pool))
	supplierHandler := suppliers.NewHandler(logger, supplierService)

	productService := products.NewService(logger, products.NewRepository(pool), hooks)
	productHandler := products.NewHandler(logger, productService)

	movementService := ledger.NewService(ledger.NewRepository(pool))
	movementHandler := ledger.NewHandler(logger, movementService)

	saleService := sales.NewService(logger, sales.NewRepository(pool), hooks)
	saleHandler := sales.NewHandler(logger, saleService)

	orderService := procurement.NewService(logger, procurement.NewRepository(pool), hooks, hooks).
		WithCache(restockService)
	orderHandler := procurement.NewHandler(logger, orderService)

	importService := importer.NewService(logger, productService, supplierService, categoryService, saleService)
	importHandler := importer.NewHandler(logger, importService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		TokenIssuer:        tokenIssuer,
		AuthHandler:        authHandler,
		ProductsHandler:    productHandler,
		CategoriesHandler:  categoryHandler,
		SuppliersHandler:   supplierHandler,
		SalesHandler:       saleHandler,
		MovementsHandler:   movementHandler,
		ProcurementHandler: orderHandler,
		RestockHandler:     restockHandler,
		ImporterHandler:    importHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Fires on SIGINT/SIGTERM or when the listener dies.
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppRequestTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
