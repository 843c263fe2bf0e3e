package server

import (
	"net/http"

	"moswords/internal/api"
	"moswords/internal/envelope"
)

// getEnvelope does not check that the device belongs to the caller: the
// envelope only opens with that device's private key.
func (h *Handler) getEnvelope(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	env, err := h.envelopes.GetEnvelope(r.Context(), q.Get("scope"), q.Get("device_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, api.EnvelopeResponse{
		Scope:          env.Scope,
		DeviceID:       env.DeviceID.String(),
		SealedKey:      env.SealedKey,
		WriterDeviceID: env.WriterDeviceID.String(),
	})
}

func (h *Handler) putEnvelopes(w http.ResponseWriter, r *http.Request) {
	var req api.PutEnvelopesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	entries := make([]envelope.EnvelopeEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, envelope.EnvelopeEntry{DeviceID: e.DeviceID, SealedKey: e.SealedKey})
	}

	err := h.envelopes.PutEnvelopes(r.Context(), userFromContext(r.Context()), envelope.PutEnvelopesCommand{
		Scope:          req.Scope,
		WriterDeviceID: req.DeviceID,
		Entries:        entries,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
