package server

import (
	"encoding/json"
	"net/http"

	"moswords/internal/api"
	"moswords/pkg/errors"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError answers with the status of the error's code. Messages of
// non-AppErrors are not shown to clients.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	status := errors.HTTPStatus(code)

	message := "internal error"
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "code", code, "err", err)
	}

	respondJSON(w, status, api.ErrorResponse{Code: string(code), Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, "malformed request body", err)
	}
	return nil
}
