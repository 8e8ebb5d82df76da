// Package drivingschool собирает HTTP API автошколы: хранилище, кэш, брокер,
// сервисы и маршруты.
package drivingschool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/driving-school/internal/cache"
	"github.com/magabrotheeeer/driving-school/internal/config"
	"github.com/magabrotheeeer/driving-school/internal/events"
	"github.com/magabrotheeeer/driving-school/internal/http/middlewarectx"
	"github.com/magabrotheeeer/driving-school/internal/lib/jwt"
	"github.com/magabrotheeeer/driving-school/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/metrics"
	"github.com/magabrotheeeer/driving-school/internal/migrations"
	googleauth "github.com/magabrotheeeer/driving-school/internal/oauth/google"
	"github.com/magabrotheeeer/driving-school/internal/revocation"
	authservice "github.com/magabrotheeeer/driving-school/internal/services/auth"
	profileservice "github.com/magabrotheeeer/driving-school/internal/services/profile"
	schoolservice "github.com/magabrotheeeer/driving-school/internal/services/school"
	userservice "github.com/magabrotheeeer/driving-school/internal/services/user"
	"github.com/magabrotheeeer/driving-school/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	flusher *revocation.Flusher
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.drivingschool.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient, err = cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisClient.Close)
	}

	tokens, err := revocation.Open(revocation.Backend(cfg.Revocation.Backend), db.DB, redisClient)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publisher, err := app.newPublisher(cfg.RabbitMQ)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var schoolCache schoolservice.Cache = cache.Noop{}
	if redisClient != nil {
		schoolCache = &cache.Cache{Db: redisClient}
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	maker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.AccessTTL, cfg.JWTToken.RefreshTTL,
		jwt.WithIssuer(cfg.JWTToken.Issuer))
	authService := authservice.NewAuthService(db, maker, tokens, logger,
		authservice.WithPublisher(publisher),
		authservice.WithMetrics(m),
	)
	userService := userservice.NewUserService(db, publisher, logger)
	schoolService := schoolservice.NewSchoolService(db, schoolCache, cfg.Redis.CacheTTL, logger)
	profileService := profileservice.NewProfileService(db, logger)

	if cfg.BootstrapAdmin.Email != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.BootstrapAdmin.Email, cfg.BootstrapAdmin.Password)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if created {
			logger.Info("bootstrap admin created", slog.String("email", cfg.BootstrapAdmin.Email))
		}
	}

	app.flusher, err = revocation.NewFlusher(tokens, cfg.Revocation.FlushSchedule, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.flusher.OnFlushed(m.Flushed)

	deps := Deps{
		Auth:           authService,
		Users:          userService,
		School:         schoolService,
		Profiles:       profileService,
		Limiter:        middlewarectx.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:        m.Middleware,
		MetricsHandler: m.Handler(),
		DB:             db.DB,
	}
	if cfg.GoogleOAuth.ClientID != "" {
		deps.Google = googleauth.New(ctx, cfg.GoogleOAuth)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// newPublisher подключается к RabbitMQ. Без URL события отбрасываются.
func (a *App) newPublisher(cfg config.RabbitMQ) (events.Publisher, error) {
	if cfg.URL == "" {
		a.logger.Info("rabbitmq is not configured, events are discarded")
		return events.Noop{}, nil
	}
	conn, err := rabbitmq.Connect(cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.closers = append(a.closers, ch.Close, conn.Close)
	return rabbitmq.NewPublisher(ch, cfg.Exchange), nil
}

func (a *App) Run(ctx context.Context) error {
	a.flusher.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.flusher.Stop()
	a.close()
	return err
}

// close освобождает ресурсы в обратном порядке открытия.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
