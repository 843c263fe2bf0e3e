package server

import (
	"net/http"
	"strconv"

	"moswords/internal/api"
	"moswords/internal/message"
	"moswords/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req api.PostMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	msg, err := h.messages.Post(r.Context(), userFromContext(r.Context()), message.PostMessageCommand{
		Scope:       req.Scope,
		Content:     req.Content,
		Ciphertext:  req.Ciphertext,
		Nonce:       req.Nonce,
		MessageType: req.MessageType,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse(*msg))
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(w, errors.InvalidArg("limit must be a positive integer"))
			return
		}
		limit = n
	}

	msgs, err := h.messages.List(r.Context(), q.Get("scope"), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]api.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse(m))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) updateCiphertext(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, errors.ErrMessageNotFound)
		return
	}

	var req api.UpdateCiphertextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	err = h.messages.Migrate(r.Context(), id, message.MigrateMessageCommand{
		Ciphertext: req.Ciphertext,
		Nonce:      req.Nonce,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func messageResponse(m message.MessageDTO) api.MessageResponse {
	return api.MessageResponse{
		ID:          m.ID.String(),
		Scope:       m.Scope,
		SenderID:    m.SenderID.String(),
		Content:     m.Content,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		IsEncrypted: m.IsEncrypted,
		MessageType: m.MessageType,
		SentAt:      m.SentAt,
		EditedAt:    m.EditedAt,
	}
}
