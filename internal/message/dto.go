package message

import (
	"time"

	"github.com/google/uuid"
)

// Input commands
type PostMessageCommand struct {
	Scope       string
	Content     string // legacy clients only
	Ciphertext  []byte
	Nonce       []byte
	MessageType string
}

type MigrateMessageCommand struct {
	Ciphertext []byte
	Nonce      []byte
}

// Output DTOs
type MessageDTO struct {
	ID          uuid.UUID
	Scope       string
	SenderID    uuid.UUID
	Content     string
	Ciphertext  []byte
	Nonce       []byte
	IsEncrypted *bool
	MessageType string
	SentAt      time.Time
	EditedAt    *time.Time
}
