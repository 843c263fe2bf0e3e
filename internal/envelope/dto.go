package envelope

import (
	"github.com/google/uuid"
)

// Input commands
type EnvelopeEntry struct {
	DeviceID  string
	SealedKey []byte
}

type PutEnvelopesCommand struct {
	Scope          string
	WriterDeviceID string
	Entries        []EnvelopeEntry
}

// Output DTOs
type EnvelopeDTO struct {
	Scope          string
	DeviceID       uuid.UUID
	SealedKey      []byte
	WriterDeviceID uuid.UUID
}
