package cipher

import (
	"context"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/pkg/errors"

	"github.com/google/uuid"
)

// FileRef is what a message carries to point at an uploaded file.
type FileRef struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Nonce []byte `json:"nonce"`
	Size  int    `json:"size"`
}

// UploadFile encrypts data and stores the ciphertext as an opaque blob
// under a random object key. Without a file transport it fails with
// ErrNoFileStorage before touching the conversation key.
func (c *Cipher) UploadFile(ctx context.Context, scope conversation.Scope, recipientUserIDs []string, name string, data []byte) (FileRef, error) {
	if c.files == nil {
		return FileRef{}, errors.ErrNoFileStorage
	}
	payload, err := c.EncryptFile(ctx, scope, recipientUserIDs, data)
	if err != nil {
		return FileRef{}, err
	}

	key := "files/" + uuid.NewString()
	if err := c.files.Put(ctx, key, payload.Ciphertext); err != nil {
		return FileRef{}, errors.Wrap(errors.CodeUnavailable, "file upload failed", err)
	}
	return FileRef{Key: key, Name: name, Nonce: payload.Nonce, Size: len(data)}, nil
}

// DownloadFile fetches the remote ciphertext and decrypts it with the
// cached key. ok is false on any failure.
func (c *Cipher) DownloadFile(ctx context.Context, scope conversation.Scope, ref FileRef) ([]byte, bool) {
	if c.files == nil {
		c.logger.Warn("file download without file storage", "key", ref.Key)
		return nil, false
	}
	ciphertext, err := c.files.Get(ctx, ref.Key)
	if err != nil {
		c.logger.Warn("file download failed", "key", ref.Key, "err", err)
		return nil, false
	}
	return c.DecryptFile(ctx, scope, cryptobox.Payload{Ciphertext: ciphertext, Nonce: ref.Nonce})
}
