package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/prefeitura-rio/prefect-auth-proxy/internal/api"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/config"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/gqlrewrite"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/identity"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/membership"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/passwordhash"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/store"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/tenantstore"
	"github.com/prefeitura-rio/prefect-auth-proxy/internal/upstream"
	"github.com/prefeitura-rio/prefect-auth-proxy/pkg/logger"
)

func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Setup(cfg.AppEnv)
	log.Info("application_startup", "env", cfg.AppEnv)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		})
		if err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	if cfg.DatabaseURL == "" {
		log.Error("database_url_missing")
		os.Exit(1)
	}
	if cfg.PrefectAPIURL == "" {
		log.Error("prefect_api_url_missing")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	db := store.New(pool)

	var cache membership.Cache = membership.NoopCache{}
	if cfg.CacheEnable && cfg.CacheRedisURL != "" {
		opts, err := redis.ParseURL(cfg.CacheRedisURL)
		if err != nil {
			log.Error("redis_url_parse_failed", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("redis_ping_failed", "error", err)
			os.Exit(1)
		}
		cache = membership.NewRedisCache(redisClient)
		log.Info("cache_connected", "backend", "redis")
	} else {
		log.Warn("cache_disabled")
	}

	identityStore := identity.New(db, cache)
	tenants := tenantstore.New(db, cache)
	upstreamClient := upstream.New(cfg.PrefectAPIURL, cfg.RequestsDefaultTimeout)
	oracle := gqlrewrite.NewOracle(upstreamClient, cache)
	hasher := passwordhash.New(cfg.PasswordHashIterations)

	server := api.NewServer(pool, db, identityStore, tenants, oracle, upstreamClient, hasher)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestsDefaultTimeout + 10*time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server_listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			if err := srv.Close(); err != nil {
				log.Error("server_force_close_failed", "error", err)
			}
		}

		pool.Close()
		log.Info("server_shutdown_complete")
	}
}
