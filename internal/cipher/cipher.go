// Package cipher encrypts message text and file bytes under conversation
// keys and renders stored messages, migrating legacy plaintext on the way.
package cipher

import (
	"context"
	"unicode/utf8"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/internal/metrics"
	"moswords/pkg/logger"
)

// Placeholder is shown in place of any message that cannot be decrypted.
const Placeholder = "[unable to decrypt message]"

// KeySource is satisfied by *broker.Broker.
type KeySource interface {
	EnsureConversationKey(ctx context.Context, scope conversation.Scope, recipientUserIDs []string) (cryptobox.SymmetricKey, error)
	CachedKey(ctx context.Context, scope conversation.Scope) (cryptobox.SymmetricKey, bool)
}

// MessageTransport writes a migrated message body back to the server.
type MessageTransport interface {
	UpdateCiphertext(ctx context.Context, messageID string, payload cryptobox.Payload) error
}

// FileTransport moves opaque file blobs.
type FileTransport interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

type Cipher struct {
	keys     KeySource
	messages MessageTransport
	files    FileTransport
	suite    *cryptobox.Suite
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

type Config struct {
	Keys     KeySource
	Messages MessageTransport
	Files    FileTransport
	Suite    *cryptobox.Suite
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

func New(cfg Config) *Cipher {
	return &Cipher{
		keys:     cfg.Keys,
		messages: cfg.Messages,
		files:    cfg.Files,
		suite:    cfg.Suite,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.Named("cipher"),
	}
}

// EncryptMessage obtains the scope key through the broker, which may mint
// and distribute it, and encrypts plaintext under a fresh nonce.
func (c *Cipher) EncryptMessage(ctx context.Context, scope conversation.Scope, recipientUserIDs []string, plaintext string) (cryptobox.Payload, error) {
	return c.EncryptFile(ctx, scope, recipientUserIDs, []byte(plaintext))
}

// DecryptMessage uses the locally cached key only. ok is false when the key
// is not cached, the payload fails authentication or the result is not UTF-8.
func (c *Cipher) DecryptMessage(ctx context.Context, scope conversation.Scope, ciphertext, nonce []byte) (string, bool) {
	plain, ok := c.DecryptFile(ctx, scope, cryptobox.Payload{Ciphertext: ciphertext, Nonce: nonce})
	if !ok {
		return "", false
	}
	if !utf8.Valid(plain) {
		c.metrics.DecryptFailed()
		return "", false
	}
	return string(plain), true
}

func (c *Cipher) EncryptFile(ctx context.Context, scope conversation.Scope, recipientUserIDs []string, data []byte) (cryptobox.Payload, error) {
	key, err := c.keys.EnsureConversationKey(ctx, scope, recipientUserIDs)
	if err != nil {
		return cryptobox.Payload{}, err
	}
	return c.suite.Encrypt(key, data)
}

func (c *Cipher) DecryptFile(ctx context.Context, scope conversation.Scope, payload cryptobox.Payload) ([]byte, bool) {
	key, found := c.keys.CachedKey(ctx, scope)
	if !found {
		c.metrics.DecryptFailed()
		c.logger.Debug("no cached key for scope", "scope", scope.String())
		return nil, false
	}

	plain, err := c.suite.Decrypt(key, payload)
	if err != nil {
		c.metrics.DecryptFailed()
		c.logger.Debug("payload failed to decrypt", "scope", scope.String(), "err", err)
		return nil, false
	}
	return plain, true
}
