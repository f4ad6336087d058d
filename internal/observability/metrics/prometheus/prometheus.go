package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	pm "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uber/jaeger-client-go"
	"go.uber.org/zap"
)

// Login outcomes recorded by ObserveLogin.
const (
	LoginAdmitted = "admitted"
	LoginRejected = "rejected"
	LoginQuota    = "quota_exceeded"
	LoginFailed   = "failed"
)

var (
	SrvMetrics = pm.NewServerMetrics(
		pm.WithServerHandlingTimeHistogram(
			pm.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60, 90, 120}),
		),
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Duration of handled requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "code"},
	)

	loginOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_outcomes_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(SrvMetrics, requestDuration, loginOutcomes)
}

func ObserveRequest(d time.Duration, status int, op string) {
	requestDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(d.Seconds())
}

func ObserveLogin(outcome string) {
	loginOutcomes.WithLabelValues(outcome).Inc()
}

// Exemplar attaches the current Jaeger trace id to gRPC histogram samples.
func Exemplar(ctx context.Context) prometheus.Labels {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return nil
	}

	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		return prometheus.Labels{"traceID": sc.TraceID().String()}
	}
	return nil
}

type Metrics struct {
	srv *http.Server
}

func New(port int) *Metrics {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Metrics{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves /metrics until ctx is cancelled.
func (m *Metrics) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Debug("failed to shutdown metrics server", zap.Error(err))
		}
	}()

	zap.L().Info("Starting metrics server", zap.String("addr", m.srv.Addr))
	if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("metrics server error", zap.Error(err))
	}
}
