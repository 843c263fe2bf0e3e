package envelope

import (
	"context"

	"moswords/internal/envelope/model"

	"github.com/google/uuid"
)

type EnvelopeRepository interface {
	GetEnvelope(ctx context.Context, scope string, deviceID uuid.UUID) (*model.KeyEnvelope, error)
	HasEnvelopes(ctx context.Context, scope string) (bool, error)

	// Writes one batch for a scope in a single transaction. Rows addressed to
	// other devices are never overwritten; only the writer's own row is.
	// exclusive rejects the batch when the scope already has envelopes.
	PutEnvelopes(ctx context.Context, scope string, writerDeviceID uuid.UUID, envelopes []model.KeyEnvelope, exclusive bool) error
}
