// Package client — клиент gRPC-сервиса проверки токенов.
//
// AuthClient реализует тот же контракт Verify, что и сервис аутентификации,
// поэтому подходит как TokenVerifier для middleware соседних сервисов.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/driving-school/internal/grpc/server"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

type AuthClient struct {
	conn *grpc.ClientConn
}

// NewAuthClient создаёт клиент. Без опций используется соединение без TLS.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc.client.NewAuthClient: %w", err)
	}
	return &AuthClient{conn: conn}, nil
}

func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// Verify проверяет токен на сервере. Отказ сервера возвращается как models.ErrTokenMalformed.
func (a *AuthClient) Verify(ctx context.Context, token string) (*models.Claims, error) {
	const op = "grpc.client.Verify"

	out := new(structpb.Struct)
	if err := a.conn.Invoke(ctx, server.VerifyMethod, wrapperspb.String(token), out); err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return nil, fmt.Errorf("%s: %w", op, models.ErrTokenMalformed)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := out.GetFields()
	return &models.Claims{
		UserID:    int64(f["user_id"].GetNumberValue()),
		Email:     f["email"].GetStringValue(),
		Role:      models.Role(f["role"].GetStringValue()),
		TokenType: models.TokenType(f["token_type"].GetStringValue()),
	}, nil
}
