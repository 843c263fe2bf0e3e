package server

import (
	"context"
	"net/http"
	"strings"

	"moswords/pkg/errors"
	"moswords/pkg/utils"

	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user_id"

// authenticate verifies the bearer JWT and puts the user id in the context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			h.respondError(w, errors.ErrMissingCredentials)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.respondError(w, errors.ErrInvalidToken)
			return
		}

		claims, err := utils.ParseJWTToken(token, h.jwtSecret)
		if err != nil {
			h.logger.Debug("rejected token", "err", err)
			h.respondError(w, errors.ErrInvalidToken)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			h.respondError(w, errors.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userContextKey).(uuid.UUID)
	return id
}
