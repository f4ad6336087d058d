package http

import (
	"net/http"

	"github.com/JMURv/device-auth/internal/hdl"
	mid "github.com/JMURv/device-auth/internal/hdl/http/middleware"
	"github.com/JMURv/device-auth/internal/hdl/http/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) RegisterDeviceRoutes() {
	h.Router.With(mid.Auth(h.ctrl)).Get("/devices", h.listDevices)
	h.Router.With(mid.Auth(h.ctrl)).Delete("/devices/{id}", h.deleteDevice)
}

// listDevices godoc
//
//	@Summary		List own device slots
//	@Tags			Devices
//	@Produce		json
//	@Param			Authorization	header	string	true	"Bearer token"
//	@Success		200				{array}	models.Device
//	@Router			/devices [get]
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	const op = "devices.listDevices.hdl"
	session, ok := utils.SessionFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error(), zap.String("op", op))
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	res, err := h.ctrl.ListDevices(r.Context(), session.ID)
	if err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.SuccessResponse(w, http.StatusOK, res)
}

// deleteDevice godoc
//
//	@Summary		Free one of the caller's device slots
//	@Tags			Devices
//	@Param			Authorization	header	string	true	"Bearer token"
//	@Param			id				path	string	true	"Device id"
//	@Success		204
//	@Failure		404	{object}	utils.ErrorsResponse
//	@Router			/devices/{id} [delete]
func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	const op = "devices.deleteDevice.hdl"
	session, ok := utils.SessionFromContext(r.Context())
	if !ok {
		zap.L().Error(hdl.ErrFailedToGetUUID.Error(), zap.String("op", op))
		utils.ErrResponse(w, http.StatusInternalServerError, hdl.ErrInternal)
		return
	}

	deviceID := chi.URLParam(r, "id")
	if deviceID == "" {
		utils.ErrResponse(w, http.StatusBadRequest, hdl.ErrToRetrievePathArg)
		return
	}

	if err := h.ctrl.DeleteDevice(r.Context(), session.ID, deviceID); err != nil {
		utils.FailResponse(w, op, err)
		return
	}

	utils.StatusResponse(w, http.StatusNoContent)
}
