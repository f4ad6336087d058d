package grpc

import (
	"errors"
	"fmt"
	"net"

	"github.com/JMURv/device-auth/internal/ctrl"
	"github.com/JMURv/device-auth/internal/hdl/grpc/interceptors"
	metrics "github.com/JMURv/device-auth/internal/observability/metrics/prometheus"
	pm "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Handler struct {
	name string
	srv  *grpc.Server
	hsrv *health.Server
	ctrl ctrl.AppCtrl
}

func New(name string, ctrl ctrl.AppCtrl) *Handler {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.LogTraceMetrics(),
			interceptors.Auth(ctrl),
			metrics.SrvMetrics.UnaryServerInterceptor(
				pm.WithExemplarFromContext(metrics.Exemplar),
			),
		),
		grpc.ChainStreamInterceptor(
			metrics.SrvMetrics.StreamServerInterceptor(
				pm.WithExemplarFromContext(metrics.Exemplar),
			),
		),
	)

	reflection.Register(srv)

	hsrv := health.NewServer()
	hsrv.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	return &Handler{
		name: name,
		ctrl: ctrl,
		srv:  srv,
		hsrv: hsrv,
	}
}

func (h *Handler) Start(port int) {
	grpc_health_v1.RegisterHealthServer(h.srv, h.hsrv)
	metrics.SrvMetrics.InitializeMetrics(h.srv)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		zap.L().Fatal("failed to listen", zap.Error(err))
	}

	zap.L().Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
	if err = h.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		zap.L().Fatal("failed to serve", zap.Error(err))
	}
}

// Close flips the health status before draining so probes stop routing traffic here.
func (h *Handler) Close() error {
	h.hsrv.SetServingStatus(h.name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	h.hsrv.Shutdown()
	h.srv.GracefulStop()
	return nil
}
