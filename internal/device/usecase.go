package device

import (
	"context"

	"github.com/google/uuid"
)

type DeviceUsecase interface {
	// Register or refresh the calling device's public key under the authenticated user
	RegisterDevice(ctx context.Context, userID uuid.UUID, cmd RegisterDeviceCommand) (*DeviceKeyDTO, error)

	// Batched lookup used to seal a new conversation key for every device of every participant
	GetDeviceKeys(ctx context.Context, userIDs []uuid.UUID) ([]DeviceKeyDTO, error)
}
