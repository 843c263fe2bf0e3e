package model

import (
	"time"

	"github.com/google/uuid"
)

// KeyEnvelope is a conversation key sealed to one device's public key.
// The server stores it opaquely and serves it to any authenticated caller;
// only the holder of the matching private key can open it.
type KeyEnvelope struct {
	Scope    string    `bun:",pk"`
	DeviceID uuid.UUID `bun:",pk,type:uuid"`

	SealedKey []byte `bun:",notnull"` // nacl/box anonymous seal, 80 bytes

	// device that minted and sealed the key
	WriterDeviceID uuid.UUID `bun:",notnull,type:uuid"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
