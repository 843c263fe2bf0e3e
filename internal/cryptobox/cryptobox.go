// Package cryptobox holds the primitives the key protocol is built from:
// X25519 device keypairs, anonymous sealed boxes for key envelopes and
// XChaCha20-Poly1305 for message and file payloads.
//
// All randomness flows through a Suite, so a process can host several
// simulated devices, each with its own source, without shared state.
package cryptobox

import (
	"crypto/rand"
	"fmt"
	"io"

	apperrors "moswords/pkg/errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	KeySize       = 32
	NonceSize     = chacha20poly1305.NonceSizeX
	SealedKeySize = KeySize + box.AnonymousOverhead
)

type (
	PublicKey    [KeySize]byte
	PrivateKey   [KeySize]byte
	SymmetricKey [KeySize]byte
)

type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

// Payload is what one encryption call produces.
type Payload struct {
	Ciphertext []byte
	Nonce      []byte
}

type Suite struct {
	rand io.Reader
}

// NewSuite builds a suite over r; nil means crypto/rand.
func NewSuite(r io.Reader) *Suite {
	if r == nil {
		r = rand.Reader
	}
	return &Suite{rand: r}
}

func (s *Suite) GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(s.rand)
	if err != nil {
		return KeyPair{}, fmt.Errorf("cryptobox: generate keypair: %w", err)
	}
	return KeyPair{Public: *pub, Private: *priv}, nil
}

func (s *Suite) GenerateSymmetricKey() (SymmetricKey, error) {
	var k SymmetricKey
	if _, err := io.ReadFull(s.rand, k[:]); err != nil {
		return SymmetricKey{}, fmt.Errorf("cryptobox: generate key: %w", err)
	}
	return k, nil
}

// Seal encrypts key to recipient without revealing the sender.
func (s *Suite) Seal(key SymmetricKey, recipient PublicKey) ([]byte, error) {
	pub := [KeySize]byte(recipient)
	sealed, err := box.SealAnonymous(nil, key[:], &pub, s.rand)
	if err != nil {
		return nil, apperrors.EnvelopeError(err)
	}
	return sealed, nil
}

// Open recovers a key sealed for pub. It fails for any other keypair and
// for blobs of the wrong shape.
func (s *Suite) Open(sealed []byte, pub PublicKey, priv PrivateKey) (SymmetricKey, error) {
	if len(sealed) != SealedKeySize {
		return SymmetricKey{}, apperrors.EnvelopeError(
			fmt.Errorf("sealed key is %d bytes, want %d", len(sealed), SealedKeySize))
	}
	p, k := [KeySize]byte(pub), [KeySize]byte(priv)
	raw, ok := box.OpenAnonymous(nil, sealed, &p, &k)
	if !ok || len(raw) != KeySize {
		return SymmetricKey{}, apperrors.ErrEnvelope
	}
	return SymmetricKey(raw), nil
}

// Encrypt draws a fresh nonce for every call. No associated data is bound.
func (s *Suite) Encrypt(key SymmetricKey, plaintext []byte) (Payload, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return Payload{}, fmt.Errorf("cryptobox: init aead: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return Payload{}, fmt.Errorf("cryptobox: nonce: %w", err)
	}

	return Payload{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
	}, nil
}

func (s *Suite) Decrypt(key SymmetricKey, p Payload) ([]byte, error) {
	if len(p.Nonce) != NonceSize {
		return nil, apperrors.AuthenticationFailure(
			fmt.Errorf("nonce is %d bytes, want %d", len(p.Nonce), NonceSize))
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptobox: init aead: %w", err)
	}
	plaintext, err := aead.Open(nil, p.Nonce, p.Ciphertext, nil)
	if err != nil {
		return nil, apperrors.AuthenticationFailure(err)
	}
	return plaintext, nil
}

// PublicFromPrivate recomputes the public half of an X25519 keypair.
func PublicFromPrivate(priv PrivateKey) (PublicKey, error) {
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return PublicKey{}, fmt.Errorf("cryptobox: derive public key: %w", err)
	}
	return PublicKey(pub), nil
}

// ParsePublicKey copies a 32-byte public key off the wire.
func ParsePublicKey(b []byte) (PublicKey, error) {
	if len(b) != KeySize {
		return PublicKey{}, apperrors.ErrInvalidPublicKey
	}
	return PublicKey(b), nil
}

func ParsePrivateKey(b []byte) (PrivateKey, error) {
	if len(b) != KeySize {
		return PrivateKey{}, fmt.Errorf("cryptobox: private key is %d bytes, want %d", len(b), KeySize)
	}
	return PrivateKey(b), nil
}

func ParseSymmetricKey(b []byte) (SymmetricKey, error) {
	if len(b) != KeySize {
		return SymmetricKey{}, fmt.Errorf("cryptobox: symmetric key is %d bytes, want %d", len(b), KeySize)
	}
	return SymmetricKey(b), nil
}
