package message

import (
	"context"

	"github.com/google/uuid"
)

type MessageUsecase interface {
	Post(ctx context.Context, senderID uuid.UUID, cmd PostMessageCommand) (*MessageDTO, error)
	List(ctx context.Context, scope string, limit int) ([]MessageDTO, error)

	// Writes back a legacy message as ciphertext. Idempotent, last write wins.
	Migrate(ctx context.Context, id uuid.UUID, cmd MigrateMessageCommand) error
}
