package server

import (
	"net/http"

	"moswords/internal/api"
	"moswords/internal/device"
	"moswords/pkg/errors"

	"github.com/google/uuid"
)

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	key, err := h.devices.RegisterDevice(r.Context(), userFromContext(r.Context()), device.RegisterDeviceCommand{
		DeviceID:  req.DeviceID,
		PublicKey: req.PublicKey,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, deviceKeyResponse(*key))
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["user_id"]
	userIDs := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			h.respondError(w, errors.ErrInvalidUserID)
			return
		}
		userIDs = append(userIDs, id)
	}

	keys, err := h.devices.GetDeviceKeys(r.Context(), userIDs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]api.DeviceKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, deviceKeyResponse(k))
	}
	respondJSON(w, http.StatusOK, out)
}

func deviceKeyResponse(k device.DeviceKeyDTO) api.DeviceKeyResponse {
	return api.DeviceKeyResponse{
		UserID:     k.UserID.String(),
		DeviceID:   k.DeviceID.String(),
		PublicKey:  k.PublicKey,
		LastSeenAt: k.LastSeenAt,
	}
}
