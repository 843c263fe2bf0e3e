package securecache

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/cipher"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltKey  = "securecache:salt"
	checkKey = "securecache:check"

	saltSize = 16
)

var checkValue = []byte("moswords-securecache-v1")

var (
	ErrWrongPassphrase = errors.New("securecache: wrong passphrase")
	ErrCorrupt         = errors.New("securecache: sealed value is corrupt")
)

// Sealed encrypts every value at rest with a key derived from a passphrase
// (argon2id). Names are stored as given and authenticated with the value, so
// a sealed value only opens under the name it was written to.
type Sealed struct {
	inner Cache
	aead  cipher.AEAD
}

// NewSealed derives the key from passphrase and the salt stored in inner,
// creating the salt on first use. A passphrase that does not match the one
// the cache was created with fails with ErrWrongPassphrase.
func NewSealed(ctx context.Context, inner Cache, passphrase []byte) (*Sealed, error) {
	salt, found, err := inner.Get(ctx, saltKey)
	if err != nil {
		return nil, err
	}
	if !found {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, errors.Wrap(err, "securecache.NewSealed.Salt: ")
		}
		if err := inner.Set(ctx, saltKey, salt); err != nil {
			return nil, err
		}
	}

	aead, err := chacha20poly1305.NewX(argon2.IDKey(passphrase, salt, 1, 64*1024, 4, chacha20poly1305.KeySize))
	if err != nil {
		return nil, errors.Wrap(err, "securecache.NewSealed.NewX: ")
	}
	s := &Sealed{inner: inner, aead: aead}

	check, found, err := s.Get(ctx, checkKey)
	switch {
	case err != nil && errors.Is(err, ErrCorrupt):
		return nil, ErrWrongPassphrase
	case err != nil:
		return nil, err
	case !found:
		if err := s.Set(ctx, checkKey, checkValue); err != nil {
			return nil, err
		}
	case !bytes.Equal(check, checkValue):
		return nil, ErrWrongPassphrase
	}
	return s, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	boxed, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	n := s.aead.NonceSize()
	if len(boxed) < n+s.aead.Overhead() {
		return nil, false, ErrCorrupt
	}

	plain, err := s.aead.Open(nil, boxed[:n], boxed[n:], []byte(key))
	if err != nil {
		return nil, false, ErrCorrupt
	}
	return plain, true, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return errors.Wrap(err, "securecache.Sealed.Set.Nonce: ")
	}
	boxed := s.aead.Seal(nonce, nonce, value, []byte(key))
	return s.inner.Set(ctx, key, boxed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
