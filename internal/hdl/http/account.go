package http

import (
	"net/http"

	"github.com/JMURv/device-auth/internal/dto"
	"github.com/JMURv/device-auth/internal/hdl"
	mid "github.com/JMURv/device-auth/internal/hdl/http/middleware"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	"github.com/JMURv/device-auth/internal/hdl/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) RegisterAccountRoutes() {
	h.Router.Route("/admin/accounts", func(r chi.Router) {
		r.Use(mid.Auth(h.ctrl), mid.RequireAdmin)
		r.Get("/", h.listAccounts)
		r.Post("/", h.createAccount)
		r.Get("/{id}", h.getAccount)
		r.Put("/{id}", h.updateAccount)
		r.Delete("/{id}", h.deleteAccount)
		r.Delete("/{id}/devices/{deviceId}", h.deleteAccountDevice)
	})
}

func parseAccountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		zap.L().Debug(
			hdl.ErrFailedToParseUUID.Error(),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrFailedToParseUUID)
		return uuid.Nil, false
	}
	return id, true
}

// listAccounts godoc
//
//	@Summary		List accounts
//	@Tags			Admin
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			size		query		int		false	"Page size"		default(40)
//	@Param			is_active	query		bool	false	"Active filter"
//	@Param			is_online	query		bool	false	"Presence filter"
//	@Param			role		query		string	false	"Role filter"
//	@Success		200			{object}	dto.PaginatedAccountResponse
//	@Router			/admin/accounts [get]
func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.listAccounts.hdl"
	page, size := utils.ParsePaginationValues(r)

	res, err := h.ctrl.ListAccounts(r.Context(), page, size, utils.ParseAccountFilter(r))
	if err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// createAccount godoc
//
//	@Summary		Create a standard account
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.CreateAccountRequest	true	"Account"
//	@Success		201		{object}	dto.CreateAccountResponse
//	@Failure		409		{object}	utils.ErrorsResponse	"username taken"
//	@Router			/admin/accounts [post]
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.createAccount.hdl"
	req := &dto.CreateAccountRequest{}
	if ok := utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	if err := validation.CreateAccountRequest(req); err != nil {
		utils.ErrResponse(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.ctrl.CreateAccount(r.Context(), req)
	if err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, http.StatusCreated, res)
}

// getAccount godoc
//
//	@Summary		Get account status
//	@Tags			Admin
//	@Produce		json
//	@Param			id	path		string	true	"Account UUID"
//	@Success		200	{object}	dto.AccountStatus
//	@Failure		404	{object}	utils.ErrorsResponse
//	@Router			/admin/accounts/{id} [get]
func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.getAccount.hdl"
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	res, err := h.ctrl.GetAccount(r.Context(), id)
	if err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// updateAccount godoc
//
//	@Summary		Update active flag, expiry or quota
//	@Tags			Admin
//	@Accept			json
//	@Param			id		path	string						true	"Account UUID"
//	@Param			body	body	dto.UpdateAccountRequest	true	"Changes"
//	@Success		200
//	@Failure		404	{object}	utils.ErrorsResponse
//	@Router			/admin/accounts/{id} [put]
func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.updateAccount.hdl"
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	req := &dto.UpdateAccountRequest{}
	if ok = utils.ParseAndValidate(w, r, req); !ok {
		return
	}

	if err := validation.UpdateAccountRequest(req); err != nil {
		utils.ErrResponse(w, http.StatusBadRequest, err)
		return
	}

	if err := h.ctrl.UpdateAccount(r.Context(), id, req); err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.StatusResponse(w, http.StatusOK)
}

// deleteAccount godoc
//
//	@Summary		Delete an account and its device slots
//	@Tags			Admin
//	@Param			id	path	string	true	"Account UUID"
//	@Success		204
//	@Failure		404	{object}	utils.ErrorsResponse
//	@Router			/admin/accounts/{id} [delete]
func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.deleteAccount.hdl"
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	if err := h.ctrl.DeleteAccount(r.Context(), id); err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.StatusResponse(w, http.StatusNoContent)
}

// deleteAccountDevice godoc
//
//	@Summary		Free a device slot of any account
//	@Tags			Admin
//	@Param			id			path	string	true	"Account UUID"
//	@Param			deviceId	path	string	true	"Device id"
//	@Success		204
//	@Failure		404	{object}	utils.ErrorsResponse
//	@Router			/admin/accounts/{id}/devices/{deviceId} [delete]
func (h *Handler) deleteAccountDevice(w http.ResponseWriter, r *http.Request) {
	const op = "accounts.deleteAccountDevice.hdl"
	id, ok := parseAccountID(w, r)
	if !ok {
		return
	}

	if err := h.ctrl.DeleteDevice(r.Context(), id, chi.URLParam(r, "deviceId")); err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.StatusResponse(w, http.StatusNoContent)
}
