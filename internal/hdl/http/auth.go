package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl"
	mid "github.com/JMURv/device-auth/internal/hdl/http/middleware"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	"github.com/JMURv/device-auth/internal/hdl/validation"
	metrics "github.com/JMURv/device-auth/internal/observability/metrics/prometheus"
	ot "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

func (h *Handler) RegisterAuthRoutes() {
	h.Router.With(mid.RateLimit(h.limiter)).Post("/auth/login", h.login)
	h.Router.Post("/auth/logout", h.logout)
	h.Router.With(mid.Auth(h.ctrl)).Get("/auth/me", h.me)
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.LoginAdmitted
	case errors.Is(err, auth.ErrDeviceQuotaExceeded):
		return metrics.LoginQuota
	case utils.ErrorStatus(err) < http.StatusInternalServerError:
		return metrics.LoginRejected
	default:
		return metrics.LoginFailed
	}
}

// login godoc
//
//	@Summary		Log in from a device
//	@Description	Check credentials, take or renew a device slot and issue a bearer token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.LoginRequest	true	"Login credentials"
//	@Success		200		{object}	dto.Session
//	@Failure		400		{object}	utils.ErrorsResponse
//	@Failure		401		{object}	utils.ErrorsResponse	"invalid credentials"
//	@Failure		403		{object}	utils.ErrorsResponse	"disabled, expired or device quota reached"
//	@Failure		429		{object}	utils.ErrorsResponse
//	@Failure		503		{object}	utils.ErrorsResponse
//	@Router			/auth/login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	const op = "auth.login.hdl"
	s, c := time.Now(), http.StatusOK
	span, ctx := ot.StartSpanFromContext(r.Context(), op)
	defer func() {
		span.Finish()
		metrics.ObserveRequest(time.Since(s), c, op)
	}()

	req := &dto.LoginRequest{}
	if ok := utils.ParseAndValidate(w, r, req); !ok {
		c = http.StatusBadRequest
		return
	}

	if err := validation.LoginRequest(req); err != nil {
		c = http.StatusBadRequest
		utils.ErrResponse(w, c, err)
		return
	}

	res, err := h.ctrl.Login(ctx, req)
	metrics.ObserveLogin(loginOutcome(err))
	if err != nil {
		c = utils.ErrorStatus(err)
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, c, res)
}

// logout godoc
//
//	@Summary		Log out
//	@Description	Mark the account offline. The token stays valid until it expires.
//	@Tags			Authentication
//	@Produce		json
//	@Param			Authorization	header	string	true	"Bearer token"
//	@Success		200
//	@Failure		401	{object}	utils.ErrorsResponse
//	@Router			/auth/logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	const op = "auth.logout.hdl"
	token, ok := utils.BearerToken(r)
	if !ok {
		utils.ErrResponse(w, http.StatusUnauthorized, hdl.ErrMissingToken)
		return
	}

	if err := h.ctrl.Logout(r.Context(), token); err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.StatusResponse(w, http.StatusOK)
}

// me godoc
//
//	@Summary		Current account
//	@Tags			Authentication
//	@Produce		json
//	@Param			Authorization	header		string	true	"Bearer token"
//	@Success		200				{object}	dto.AccountStatus
//	@Failure		401				{object}	utils.ErrorsResponse
//	@Router			/auth/me [get]
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	const op = "auth.me.hdl"
	session, ok := utils.SessionFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error(), zap.String("op", op))
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	res, err := h.ctrl.Me(r.Context(), session.ID)
	if err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}
