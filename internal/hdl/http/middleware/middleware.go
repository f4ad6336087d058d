package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	metrics "github.com/JMURv/device-auth/internal/observability/metrics/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*dto.AccountContext, error)
}

// Auth resolves the bearer token into an account context stored under
// config.SessionKey. Requests without a resolvable session are rejected.
func Auth(sr SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				token, ok := utils.BearerToken(r)
				if !ok {
					utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrMissingToken)
					return
				}

				session, err := sr.ResolveSession(r.Context(), token)
				if err != nil {
					utils.FailResponse(w, "middleware.Auth", err)
					return
				}

				ctx := context.WithValue(r.Context(), config.SessionKey, session)
				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			session, ok := utils.SessionFromContext(r.Context())
			if !ok || !session.Role.IsAdmin() {
				utils.ErrResponse(w, http.StatusForbidden, hdl.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		},
	)
}

const limiterTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than limiterTTL are dropped.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterTTL {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// PeerAddr stores the transport peer IP under config.IpKey. It must run
// before middleware.RealIP, which rewrites RemoteAddr from client headers.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), config.IpKey, hostOnly(r.RemoteAddr))
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

// ClientIP returns the peer IP recorded by PeerAddr, falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(config.IpKey).(string); ok && ip != "" {
		return ip
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// RateLimit throttles by peer IP. Forwarded headers are ignored so a client
// cannot pick its own bucket.
func RateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				if !l.Allow(ClientIP(r)) {
					w.Header().Set("Retry-After", "1")
					utils.ErrResponse(w, http.StatusTooManyRequests, hdl.ErrTooManyRequests)
					return
				}

				next.ServeHTTP(w, r)
			},
		)
	}
}

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func NewLoggingResponseWriter(w http.ResponseWriter) *LoggingResponseWriter {
	return &LoggingResponseWriter{w, http.StatusOK}
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			s := time.Now()
			lrw := NewLoggingResponseWriter(w)
			next.ServeHTTP(lrw, r)

			// route patterns keep ids out of the label set
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			metrics.ObserveRequest(time.Since(s), lrw.statusCode, fmt.Sprintf("%s %s", r.Method, path))
		},
	)
}

// Logger never logs headers or bodies, so credentials and tokens stay out of the logs.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				lrw := NewLoggingResponseWriter(w)
				logger.Debug(
					"-->",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
				)

				next.ServeHTTP(lrw, r)

				logger.Info(
					"<--",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", lrw.statusCode),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote", r.RemoteAddr),
				)
			},
		)
	}
}

func OT(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			span, ctx := opentracing.StartSpanFromContext(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path))
			defer span.Finish()

			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}
