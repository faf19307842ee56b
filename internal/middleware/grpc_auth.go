package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MikhailRaia/tinyu/internal/auth"
)

type GRPCAuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
}

func NewGRPCAuthMiddleware(jwtService *auth.JWTService, users UserLookup) *GRPCAuthMiddleware {
	return &GRPCAuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// UnaryInterceptor puts the user ID from the "authorization" metadata into
// the context. Calls without a token continue anonymously; handlers that
// need an owner reject them.
func (m *GRPCAuthMiddleware) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	values := md.Get("authorization")
	if len(values) == 0 || values[0] == "" {
		return handler(ctx, req)
	}

	token := strings.TrimSpace(strings.TrimPrefix(values[0], "Bearer "))
	claims, err := m.jwtService.ValidateToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid session token")
	}

	user, err := m.users.User(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownUser) {
			return nil, status.Error(codes.PermissionDenied, auth.ErrUnknownUser.Error())
		}
		log.Error().Err(err).Str("method", info.FullMethod).Msg("Failed to load session user")
		return nil, status.Error(codes.Internal, "failed to load user")
	}

	return handler(WithUserID(ctx, user.ID), req)
}
