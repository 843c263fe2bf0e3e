// Package client assembles one device: its identity, its conversation key
// broker and its message cipher, bound to a server.
package client

import (
	"context"
	"time"

	"moswords/internal/api"
	"moswords/internal/broker"
	"moswords/internal/cipher"
	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/internal/gateway"
	"moswords/internal/identity"
	"moswords/internal/metrics"
	"moswords/internal/securecache"
	"moswords/pkg/logger"
)

type Options struct {
	Server  gateway.Server
	Cache   securecache.Cache
	Files   cipher.FileTransport
	Suite   *cryptobox.Suite
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

type Device struct {
	Identity *identity.Manager
	Keys     *broker.Broker
	Cipher   *cipher.Cipher

	server gateway.Server
	logger *logger.Logger
}

// Message is a stored message as shown to the user.
type Message struct {
	ID       string
	SenderID string
	Text     string
	SentAt   time.Time
}

func New(opts Options) *Device {
	suite := opts.Suite
	if suite == nil {
		suite = cryptobox.NewSuite(nil)
	}

	ids := identity.NewManager(opts.Cache, opts.Server, suite, opts.Logger)
	keys := broker.New(broker.Config{
		Identity:  ids,
		Directory: opts.Server,
		Envelopes: opts.Server,
		Cache:     opts.Cache,
		Suite:     suite,
		Metrics:   opts.Metrics,
		Logger:    opts.Logger,
	})
	c := cipher.New(cipher.Config{
		Keys:     keys,
		Messages: opts.Server,
		Files:    opts.Files,
		Suite:    suite,
		Metrics:  opts.Metrics,
		Logger:   opts.Logger,
	})

	return &Device{
		Identity: ids,
		Keys:     keys,
		Cipher:   c,
		server:   opts.Server,
		logger:   opts.Logger.Named("device"),
	}
}

// Start loads or creates the device identity and registers it.
func (d *Device) Start(ctx context.Context) (identity.DeviceIdentity, error) {
	return d.Identity.EnsureIdentity(ctx)
}

// Open makes the scope key available locally, minting it for recipients
// if no device has yet.
func (d *Device) Open(ctx context.Context, scope conversation.Scope, recipientUserIDs []string) error {
	_, err := d.Keys.EnsureConversationKey(ctx, scope, recipientUserIDs)
	return err
}

func (d *Device) Send(ctx context.Context, scope conversation.Scope, recipientUserIDs []string, text string) (*api.MessageResponse, error) {
	payload, err := d.Cipher.EncryptMessage(ctx, scope, recipientUserIDs, text)
	if err != nil {
		return nil, err
	}
	return d.server.PostMessage(ctx, api.PostMessageRequest{
		Scope:      scope.String(),
		Ciphertext: payload.Ciphertext,
		Nonce:      payload.Nonce,
	})
}

// Read lists the latest messages of scope and renders them with the cached
// key only. Undecryptable messages show cipher.Placeholder.
func (d *Device) Read(ctx context.Context, scope conversation.Scope, limit int) ([]Message, error) {
	stored, err := d.server.ListMessages(ctx, scope.String(), limit)
	if err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		out = append(out, Message{
			ID:       m.ID,
			SenderID: m.SenderID,
			Text:     d.Cipher.Render(ctx, gateway.StoredMessage(m, scope)),
			SentAt:   m.SentAt,
		})
	}
	return out, nil
}
