package interceptors

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	metrics "github.com/JMURv/device-auth/internal/observability/metrics/prometheus"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*dto.AccountContext, error)
}

// Auth resolves bearer metadata into an account context under config.SessionKey.
// Calls without a token pass through untouched so public methods keep working.
func Auth(sr SessionResolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			zap.L().Debug("missing authorization token", zap.String("method", info.FullMethod))
			return handler(ctx, req)
		}

		tokenStr := strings.TrimSpace(authHeaders[0])
		if len(tokenStr) > 7 && strings.EqualFold(tokenStr[:7], "Bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[7:])
		}

		session, err := sr.ResolveSession(ctx, tokenStr)
		if err != nil {
			return nil, sessionStatus(err)
		}

		return handler(context.WithValue(ctx, config.SessionKey, session), req)
	}
}

func sessionStatus(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, auth.ErrAccountDisabled), errors.Is(err, auth.ErrAccountExpired):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		zap.L().Error("failed to resolve session", zap.Error(err))
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	}
}

func LogTraceMetrics() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		s := time.Now()
		span, ctx := opentracing.StartSpanFromContext(ctx, info.FullMethod)
		defer span.Finish()

		res, err := handler(ctx, req)
		statusCode := status.Code(err)
		if err != nil {
			span.SetTag(config.ErrorSpanTag, true)
		}
		metrics.ObserveRequest(time.Since(s), int(statusCode), info.FullMethod)

		zap.L().Info(
			"<--",
			zap.String("method", info.FullMethod),
			zap.Int("status", int(statusCode)),
			zap.Any("duration", time.Since(s)),
			zap.Error(err),
		)

		return res, err
	}
}
