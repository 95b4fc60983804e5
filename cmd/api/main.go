package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-kit/internal/cartstate"
	"storefront-kit/internal/config"
	"storefront-kit/internal/db"
	"storefront-kit/internal/files"
	"storefront-kit/internal/httpserver"
	"storefront-kit/internal/logging"
	"storefront-kit/internal/migrate"
	"storefront-kit/internal/repository/cartsession"
	tokenrepo "storefront-kit/internal/repository/token"
	cartsvc "storefront-kit/internal/service/cart"
	catalogsvc "storefront-kit/internal/service/catalog"
	sessionsvc "storefront-kit/internal/service/session"
	"storefront-kit/internal/storefront"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	defs, err := config.LoadDefinitions(cfg.MetafieldsFile)
	if err != nil {
		return err
	}

	var cache storefront.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		cache = storefront.NewRedisCache(rdb, cfg.CacheTTL+cfg.Revalidate)
		logger.Info("storefront cache backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	client, err := storefront.New(storefront.Config{
		Shop:           cfg.Shop,
		Token:          cfg.StorefrontToken,
		APIVersion:     cfg.APIVersion,
		UseMemoryCache: cfg.MemoryCache,
		UseEdgeCache:   cfg.EdgeCache,
		CacheTTL:       cfg.CacheTTL,
		Revalidate:     cfg.Revalidate,
		Cache:          cache,
		Logger:         logger.Named("storefront"),
	})
	if err != nil {
		return fmt.Errorf("init storefront client: %w", err)
	}
	logger.Info("storefront client ready", zap.String("endpoint", client.Endpoint()))

	resolver := files.NewResolver(client, logger.Named("files"))

	cartOpts := cartsvc.DefaultOptions()
	cartOpts.ResolveFiles = true
	carts := cartsvc.New(client, resolver, cartsvc.Config{
		ProductMetafields: defs.ProductMetafields,
		VariantMetafields: defs.VariantMetafields,
		Attributes:        defs.CartAttributes,
		LineLimit:         cfg.CartLineLimit,
		Options:           cartOpts,
		Development:       cfg.Development(),
	}, logger.Named("cart"))
	catalog := catalogsvc.New(client, resolver, logger.Named("catalog"))

	ctx := context.Background()
	var (
		pool   *pgxpool.Pool
		values cartsession.Repository
		tokens tokenrepo.Repository
	)
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		pool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer pool.Close()
		if err := migrate.Apply(ctx, pool, logger.Named("migrate")); err != nil {
			return err
		}
		values = cartsession.NewPostgres(pool)
		tokens = tokenrepo.NewPostgres(pool)
	case config.SessionStoreMemory, "":
		values = cartsession.NewMemory()
	default:
		return fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
	sessions := sessionsvc.New(tokens, cfg.SessionTTL)

	manager, err := cartstate.NewManager(carts, values, cartstate.DefaultManagerSize, logger.Named("cartstate"))
	if err != nil {
		return err
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger.Named("http"), pool, httpserver.Deps{
		Sessions:         sessions,
		Catalog:          catalog,
		Carts:            manager,
		Definitions:      defs,
		CatalogOptions:   catalogsvc.DefaultOptions(),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
