package model

import (
	"time"

	"github.com/google/uuid"
)

// DeviceKey is one directory entry: the public half of a device identity,
// filed under the account that registered it.
type DeviceKey struct {
	UserID   uuid.UUID `bun:",pk,type:uuid"`
	DeviceID uuid.UUID `bun:",pk,type:uuid"`

	// X25519; envelopes for this device are sealed to it
	PublicKey []byte `bun:",notnull"` // 32 bytes

	RegisteredAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	LastSeenAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
