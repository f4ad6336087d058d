package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/ctrl"
	"github.com/JMURv/device-auth/internal/dto"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestAuth(t *testing.T) {
	mock := gomock.NewController(t)
	mctrl := mocks.NewMockAppCtrl(mock)
	session := &dto.AccountContext{ID: uuid.New(), Username: "alice", Role: md.RoleUser}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	tests := []struct {
		name   string
		md     metadata.MD
		code   codes.Code
		expect func()
		check  func(t *testing.T, ctx context.Context)
	}{
		{
			name:   "NoMetadata",
			code:   codes.OK,
			expect: func() {},
			check: func(t *testing.T, ctx context.Context) {
				assert.Nil(t, ctx.Value(config.SessionKey))
			},
		},
		{
			name:   "NoToken",
			md:     metadata.Pairs("x-request-id", "1"),
			code:   codes.OK,
			expect: func() {},
			check: func(t *testing.T, ctx context.Context) {
				assert.Nil(t, ctx.Value(config.SessionKey))
			},
		},
		{
			name: "Resolved",
			md:   metadata.Pairs("authorization", "Bearer tok"),
			code: codes.OK,
			expect: func() {
				mctrl.EXPECT().ResolveSession(gomock.Any(), "tok").Return(session, nil)
			},
			check: func(t *testing.T, ctx context.Context) {
				assert.Equal(t, session, ctx.Value(config.SessionKey))
			},
		},
		{
			name: "InvalidToken",
			md:   metadata.Pairs("authorization", "Bearer bad"),
			code: codes.Unauthenticated,
			expect: func() {
				mctrl.EXPECT().ResolveSession(gomock.Any(), "bad").Return(nil, auth.ErrInvalidToken)
			},
		},
		{
			name: "Expired",
			md:   metadata.Pairs("authorization", "Bearer tok"),
			code: codes.PermissionDenied,
			expect: func() {
				mctrl.EXPECT().ResolveSession(gomock.Any(), "tok").Return(nil, auth.ErrAccountExpired)
			},
		},
		{
			name: "StoreDown",
			md:   metadata.Pairs("authorization", "Bearer tok"),
			code: codes.Unavailable,
			expect: func() {
				mctrl.EXPECT().ResolveSession(gomock.Any(), "tok").
					Return(nil, errors.Join(ctrl.ErrStoreUnavailable, errors.New("conn refused")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expect()

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}

			called := false
			handler := func(ctx context.Context, req any) (any, error) {
				called = true
				if tt.check != nil {
					tt.check(t, ctx)
				}
				return "ok", nil
			}

			res, err := Auth(mctrl)(ctx, nil, info, handler)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.True(t, called)
				assert.Equal(t, "ok", res)
			} else {
				assert.False(t, called)
			}
		})
	}
}

func TestLogTraceMetrics(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/svc/Method"}
	want := status.Error(codes.NotFound, "nope")

	_, err := LogTraceMetrics()(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})
	assert.Equal(t, want, err)
}
