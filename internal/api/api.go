// Package api holds the JSON bodies exchanged between devices and the
// server. []byte fields travel as standard base64.
package api

import (
	"time"
)

type RegisterDeviceRequest struct {
	DeviceID  string `json:"device_id"`
	PublicKey []byte `json:"public_key"`
}

type DeviceKeyResponse struct {
	UserID     string    `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	PublicKey  []byte    `json:"public_key"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

type EnvelopeResponse struct {
	Scope          string `json:"scope"`
	DeviceID       string `json:"device_id"`
	SealedKey      []byte `json:"sealed_key"`
	WriterDeviceID string `json:"writer_device_id"`
}

type EnvelopeEntry struct {
	DeviceID  string `json:"device_id"`
	SealedKey []byte `json:"sealed_key"`
}

type PutEnvelopesRequest struct {
	Scope    string          `json:"scope"`
	DeviceID string          `json:"device_id"` // writer
	Entries  []EnvelopeEntry `json:"entries"`
}

type PostMessageRequest struct {
	Scope       string `json:"scope"`
	Content     string `json:"content,omitempty"`
	Ciphertext  []byte `json:"ciphertext,omitempty"`
	Nonce       []byte `json:"nonce,omitempty"`
	MessageType string `json:"message_type,omitempty"`
}

type MessageResponse struct {
	ID          string     `json:"id"`
	Scope       string     `json:"scope"`
	SenderID    string     `json:"sender_id"`
	Content     string     `json:"content,omitempty"`
	Ciphertext  []byte     `json:"ciphertext,omitempty"`
	Nonce       []byte     `json:"nonce,omitempty"`
	IsEncrypted *bool      `json:"is_encrypted"`
	MessageType string     `json:"message_type"`
	SentAt      time.Time  `json:"sent_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}

type UpdateCiphertextRequest struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
