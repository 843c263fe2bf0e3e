package cipher

import (
	"context"
	"encoding/base64"

	"moswords/internal/conversation"
)

// StoredMessage is a message body as the server returns it.
type StoredMessage struct {
	ID          string
	Scope       conversation.Scope
	Content     string
	Ciphertext  []byte
	Nonce       []byte
	IsEncrypted *bool
}

type Kind int

const (
	KindEncrypted Kind = iota
	KindPlaintext
	// no nonce, no flag, but shaped like ciphertext: cannot be decrypted
	KindOrphanCiphertext
)

// minCiphertextLen is the shortest body treated as ciphertext by shape.
const minCiphertextLen = 24

// Classify decides how a stored body must be read. The explicit flag wins;
// the shape heuristic only applies to rows that carry neither flag nor nonce.
func Classify(msg StoredMessage) Kind {
	if msg.IsEncrypted != nil {
		if *msg.IsEncrypted {
			return KindEncrypted
		}
		return KindPlaintext
	}
	if len(msg.Nonce) > 0 {
		return KindEncrypted
	}
	if LooksEncrypted(msg.Content) {
		return KindOrphanCiphertext
	}
	return KindPlaintext
}

// LooksEncrypted reports whether s has the shape of encoded ciphertext:
// long enough, no whitespace, only base64 or base64url characters.
func LooksEncrypted(s string) bool {
	if len(s) < minCiphertextLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
		case ch == '+', ch == '/', ch == '=', ch == '-', ch == '_':
		default:
			return false
		}
	}
	return true
}

// Render returns the text to display for msg, or Placeholder. Plaintext
// bodies are migrated to ciphertext when the scope key is cached.
func (c *Cipher) Render(ctx context.Context, msg StoredMessage) string {
	switch Classify(msg) {
	case KindEncrypted:
		ciphertext := msg.Ciphertext
		if len(ciphertext) == 0 && msg.Content != "" {
			// older writers put the encoded ciphertext in the text column
			decoded, err := base64.StdEncoding.DecodeString(msg.Content)
			if err != nil {
				return Placeholder
			}
			ciphertext = decoded
		}
		text, ok := c.DecryptMessage(ctx, msg.Scope, ciphertext, msg.Nonce)
		if !ok {
			return Placeholder
		}
		return text

	case KindPlaintext:
		if _, err := c.MigrateLegacy(ctx, msg); err != nil {
			c.logger.Warn("legacy message migration failed", "message_id", msg.ID, "err", err)
		}
		return msg.Content

	default:
		return Placeholder
	}
}

// MigrateLegacy re-encrypts a plaintext body with the cached scope key and
// writes it back. It reports false without error when there is nothing to
// do yet. Concurrent migrations of one message are harmless: each writes a
// complete ciphertext and nonce pair and the last write wins.
func (c *Cipher) MigrateLegacy(ctx context.Context, msg StoredMessage) (bool, error) {
	if Classify(msg) != KindPlaintext || msg.Content == "" || msg.ID == "" {
		return false, nil
	}
	key, found := c.keys.CachedKey(ctx, msg.Scope)
	if !found {
		return false, nil
	}

	payload, err := c.suite.Encrypt(key, []byte(msg.Content))
	if err != nil {
		return false, err
	}
	if err := c.messages.UpdateCiphertext(ctx, msg.ID, payload); err != nil {
		return false, err
	}

	c.metrics.MessageMigrated()
	c.logger.Debug("legacy message migrated", "message_id", msg.ID, "scope", msg.Scope.String())
	return true, nil
}
