package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/ctrl"
	mid "github.com/JMURv/device-auth/internal/hdl/http/middleware"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	Router  *chi.Mux
	srv     *http.Server
	ctrl    ctrl.AppCtrl
	limiter *mid.IPRateLimiter
}

func New(ctrl ctrl.AppCtrl, conf config.ServerConfig) *Handler {
	h := &Handler{
		Router:  chi.NewRouter(),
		ctrl:    ctrl,
		limiter: mid.NewIPRateLimiter(conf.LoginRPS, conf.LoginBurst),
	}

	h.Router.Use(
		mid.PeerAddr,
		mid.Logger(zap.L()),
		middleware.StripSlashes,
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		mid.Prometheus,
		mid.OT,
	)

	h.RegisterRoutes()
	return h
}

func (h *Handler) RegisterRoutes() {
	h.Router.Get(
		"/health", func(w http.ResponseWriter, r *http.Request) {
			utils.SuccessResponse(w, http.StatusOK, "OK")
		},
	)

	h.RegisterAuthRoutes()
	h.RegisterDeviceRoutes()
	h.RegisterAccountRoutes()
}

func (h *Handler) Start(port int) {
	h.srv = &http.Server{
		Handler:      h.Router,
		Addr:         fmt.Sprintf(":%v", port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info(
		"Starting HTTP server",
		zap.String("addr", h.srv.Addr),
	)

	err := h.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("Server error", zap.Error(err))
	}
}

func (h *Handler) Close(ctx context.Context) error {
	if h.srv == nil {
		return nil
	}
	return h.srv.Shutdown(ctx)
}
