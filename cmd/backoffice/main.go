package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hotelier/backoffice/pkg/api"
	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/config"
	"github.com/hotelier/backoffice/pkg/maintenance"
	"github.com/hotelier/backoffice/pkg/middleware"
	"github.com/hotelier/backoffice/pkg/notify"
	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
	"github.com/hotelier/backoffice/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := postgres.Connect(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}
	store := postgres.NewStore(db)

	files, err := storage.NewFileSystemStore(cfg.Storage.MediaRoot)
	if err != nil {
		logger.WithError(err).Error("failed to initialize media storage")
		os.Exit(1)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret:     []byte(cfg.Auth.TokenSecret),
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		Issuer:     cfg.Auth.Issuer,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize token codec")
		os.Exit(1)
	}
	hasher, err := auth.NewArgon2Hasher(auth.DefaultArgon2Config())
	if err != nil {
		logger.WithError(err).Error("failed to initialize password hasher")
		os.Exit(1)
	}
	oneTimeTokens := auth.NewOneTimeTokens(store, cfg.Auth.OneTimeTokenTTL)
	authService := auth.NewService(store, codec, hasher, oneTimeTokens, logger)

	var redisClient *redis.Client
	var limiter *middleware.LoginRateLimiter
	if cfg.Redis.URL != "" {
		redisClient = newRedisClient(cfg.Redis)
		defer redisClient.Close()
		limiter = middleware.NewLoginRateLimiter(redisClient,
			cfg.Redis.LoginRateLimit, cfg.Redis.LoginRateWindow, logger, metrics)
		logger.Info("login rate limiting enabled")
	} else {
		logger.Warn("redis not configured, login rate limiting disabled")
	}

	var sender notify.Sender = notify.NoopSender{}
	if cfg.Mail.Enabled {
		smtpSender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if err != nil {
			logger.WithError(err).Error("failed to initialize SMTP sender")
			os.Exit(1)
		}
		sender = smtpSender
	} else {
		logger.Warn("mail disabled, confirmation and reset links will not be delivered")
	}
	mailer := notify.NewAsyncSender(sender, logrus.New())

	purger := maintenance.NewTokenPurger(store, logger, metrics, "")
	if err := purger.Start(); err != nil {
		logger.WithError(err).Error("failed to start token purger")
		os.Exit(1)
	}

	server := api.NewServer(api.Config{
		Store:         store,
		Files:         files,
		AuthService:   authService,
		Checker:       rbac.NewChecker(store),
		Authenticator: middleware.NewAuthenticator(codec, store, logger),
		LoginLimiter:  limiter,
		Mailer:        mailer,
		Logger:        logger,
		Metrics:       metrics,
		PublicURL:     cfg.Server.PublicURL,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux(db, redisClient, metrics),
	}

	group, runCtx := errgroup.WithContext(context.Background())
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(healthServer.Shutdown)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		purger.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		mailer.Wait()
		return nil
	})

	if err := shutdown.WaitForShutdown(runCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

// newRedisClient builds a client from either a redis:// URL or a bare address
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	return redis.NewClient(opts)
}

// healthMux serves the probe endpoints and, when enabled, the metrics scrape
// on the internal port
func healthMux(db *sql.DB, redisClient *redis.Client, metrics *observability.Metrics) http.Handler {
	checker := observability.NewHealthChecker(db, redisClient)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}
