package device

import (
	"context"

	"moswords/internal/device/model"

	"github.com/google/uuid"
)

type DeviceRepository interface {
	// Insert or refresh (public key, last seen) the key of one device
	UpsertDeviceKey(ctx context.Context, key *model.DeviceKey) error
	GetDeviceKey(ctx context.Context, userID, deviceID uuid.UUID) (*model.DeviceKey, error)
	// Every device of every listed user, in one query
	ListDeviceKeys(ctx context.Context, userIDs []uuid.UUID) ([]model.DeviceKey, error)
}
