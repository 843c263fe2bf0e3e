package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID       uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`
	Scope    string    `bun:",notnull"`
	SenderID uuid.UUID `bun:",notnull,type:uuid"`

	Content    string `bun:",nullzero"` // legacy plaintext, cleared once migrated
	Ciphertext []byte `bun:",nullzero"`
	Nonce      []byte `bun:",nullzero"` // 24 bytes, XChaCha20-Poly1305

	// nil on rows written before the flag existed
	IsEncrypted *bool  `bun:",nullzero"`
	MessageType string `bun:",notnull,default:'text'"`

	SentAt   time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
	EditedAt *time.Time `bun:",nullzero"`
}
