// Package server реализует gRPC-сервис проверки токенов для соседних сервисов.
//
// Сервис drivingschool.auth.TokenVerifier описан вручную поверх стандартных
// типов protobuf. Запрос google.protobuf.StringValue с токеном, ответ
// google.protobuf.Struct с полями user_id, email, role и token_type.
// Недействительный токен даёт codes.Unauthenticated.
package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/driving-school/internal/lib/sl"
	"github.com/magabrotheeeer/driving-school/internal/models"
)

const (
	// ServiceName — полное имя gRPC-сервиса.
	ServiceName = "drivingschool.auth.TokenVerifier"
	// VerifyMethod — полное имя метода Verify.
	VerifyMethod = "/" + ServiceName + "/Verify"
)

// TokenVerifierServer — серверная сторона сервиса TokenVerifier.
type TokenVerifierServer interface {
	Verify(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ServiceDesc описывает сервис для grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TokenVerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: verifyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "drivingschool/auth/token_verifier.proto",
}

// Register регистрирует реализацию сервиса.
func Register(s grpc.ServiceRegistrar, srv TokenVerifierServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func verifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenVerifierServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenVerifierServer).Verify(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Verifier описывает проверку токена сервисом аутентификации.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Claims, error)
}

// AuthServer реализует TokenVerifierServer.
type AuthServer struct {
	verifier Verifier
	log      *slog.Logger
}

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(verifier Verifier, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		verifier: verifier,
		log:      logger,
	}
}

// Verify проверяет токен и возвращает данные субъекта.
func (s *AuthServer) Verify(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.Verify"

	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	claims, err := s.verifier.Verify(ctx, req.GetValue())
	if err != nil {
		s.log.Info("token rejected", slog.String("op", op), sl.Err(err))
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	out, err := structpb.NewStruct(map[string]any{
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"role":       string(claims.Role),
		"token_type": string(claims.TokenType),
	})
	if err != nil {
		s.log.Error("failed to build response", slog.String("op", op), sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
