package gateway

import (
	"context"

	"moswords/internal/api"
	"moswords/internal/broker"
	"moswords/internal/cipher"
	"moswords/internal/conversation"
	"moswords/internal/identity"
)

// Server is everything a device needs from the server side. Both *Client
// and *Local implement it.
type Server interface {
	identity.Registrar
	broker.Directory
	broker.EnvelopeStore
	cipher.MessageTransport

	PostMessage(ctx context.Context, req api.PostMessageRequest) (*api.MessageResponse, error)
	ListMessages(ctx context.Context, scope string, limit int) ([]api.MessageResponse, error)
}

var (
	_ Server = (*Client)(nil)
	_ Server = (*Local)(nil)
)

// StoredMessage converts a server message into the cipher's view of it.
// Messages with an unparseable scope are filed under the requested scope.
func StoredMessage(m api.MessageResponse, fallback conversation.Scope) cipher.StoredMessage {
	scope, err := conversation.Parse(m.Scope)
	if err != nil {
		scope = fallback
	}
	return cipher.StoredMessage{
		ID:          m.ID,
		Scope:       scope,
		Content:     m.Content,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		IsEncrypted: m.IsEncrypted,
	}
}
