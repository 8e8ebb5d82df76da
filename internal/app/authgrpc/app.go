// Package authgrpc собирает gRPC-сервис проверки токенов для соседних сервисов.
package authgrpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/driving-school/internal/cache"
	"github.com/magabrotheeeer/driving-school/internal/config"
	"github.com/magabrotheeeer/driving-school/internal/grpc/server"
	"github.com/magabrotheeeer/driving-school/internal/lib/jwt"
	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/revocation"
	authservice "github.com/magabrotheeeer/driving-school/internal/services/auth"
	"github.com/magabrotheeeer/driving-school/internal/storage/repository"
)

type App struct {
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *repository.Storage
	redis      *redis.Client
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.authgrpc.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if cfg.Redis.Address != "" {
		app.redis, err = cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	tokens, err := revocation.Open(revocation.Backend(cfg.Revocation.Backend), db.DB, app.redis)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maker := jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.AccessTTL, cfg.JWTToken.RefreshTTL,
		jwt.WithIssuer(cfg.JWTToken.Issuer))
	authService := authservice.NewAuthService(db, maker, tokens, logger)

	app.listener, err = net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.grpcServer = grpc.NewServer()
	server.Register(app.grpcServer, server.NewAuthServer(authService, logger))

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	select {
	case <-ctx.Done():
		a.grpcServer.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
