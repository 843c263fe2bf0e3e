package message

import (
	"context"

	"moswords/internal/message/model"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	// Newest limit messages of a scope, oldest first
	ListByScope(ctx context.Context, scope string, limit int) ([]model.Message, error)
	// Replaces the body with ciphertext in one statement: sets the flag and clears content
	UpdateCiphertext(ctx context.Context, id uuid.UUID, ciphertext, nonce []byte) error
}
