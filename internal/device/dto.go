package device

import (
	"time"

	"github.com/google/uuid"
)

// Input commands
type RegisterDeviceCommand struct {
	DeviceID  string
	PublicKey []byte // raw X25519 public key
}

// Output DTOs
type DeviceKeyDTO struct {
	UserID     uuid.UUID
	DeviceID   uuid.UUID
	PublicKey  []byte
	LastSeenAt time.Time
}
