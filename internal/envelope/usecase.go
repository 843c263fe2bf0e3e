package envelope

import (
	"context"

	"github.com/google/uuid"
)

type EnvelopeUsecase interface {
	GetEnvelope(ctx context.Context, scope, deviceID string) (*EnvelopeDTO, error)

	// Stores the sealed copies of a freshly minted conversation key, written
	// by one of userID's devices
	PutEnvelopes(ctx context.Context, userID uuid.UUID, cmd PutEnvelopesCommand) error
}
