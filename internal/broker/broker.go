// Package broker hands out the symmetric key of a conversation scope,
// minting and distributing it to every participant device the first time
// it is needed.
package broker

import (
	"context"
	"time"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/internal/identity"
	"moswords/internal/metrics"
	"moswords/internal/securecache"
	"moswords/pkg/errors"
	"moswords/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "conversation_key:"

// bootstrapTimeout bounds one shared bootstrap, which runs detached from
// the context of whichever caller started it.
const bootstrapTimeout = 30 * time.Second

// DeviceKey is one entry of the device key directory.
type DeviceKey struct {
	UserID    string
	DeviceID  string
	PublicKey cryptobox.PublicKey
}

// Envelope is a conversation key sealed for one device.
type Envelope struct {
	DeviceID  string
	SealedKey []byte
}

// Directory resolves every registered device of a set of users in one call.
type Directory interface {
	Lookup(ctx context.Context, userIDs []string) ([]DeviceKey, error)
}

// EnvelopeStore reads and writes key envelopes. Fetch reports found=false
// when the device has no envelope for the scope. Publish fails with an
// error matching errors.ErrScopeAlreadyKeyed when another device already
// keyed the scope.
type EnvelopeStore interface {
	Fetch(ctx context.Context, scope, deviceID string) (sealed []byte, found bool, err error)
	Publish(ctx context.Context, scope, writerDeviceID string, envelopes []Envelope) error
}

type IdentityProvider interface {
	EnsureIdentity(ctx context.Context) (identity.DeviceIdentity, error)
}

type Broker struct {
	identity  IdentityProvider
	directory Directory
	envelopes EnvelopeStore
	cache     securecache.Cache
	suite     *cryptobox.Suite
	metrics   *metrics.Metrics
	logger    *logger.Logger

	// per scope: one bootstrap in flight on this device
	inflight singleflight.Group
}

type Config struct {
	Identity  IdentityProvider
	Directory Directory
	Envelopes EnvelopeStore
	Cache     securecache.Cache
	Suite     *cryptobox.Suite
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

func New(cfg Config) *Broker {
	return &Broker{
		identity:  cfg.Identity,
		directory: cfg.Directory,
		envelopes: cfg.Envelopes,
		cache:     cfg.Cache,
		suite:     cfg.Suite,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.Named("broker"),
	}
}

func cacheKey(scope conversation.Scope) string {
	return cacheKeyPrefix + scope.String()
}

// EnsureConversationKey returns the key of scope. A cached key is returned
// without touching the network. Otherwise this device's envelope is opened,
// or a new key is minted and sealed for every device of recipientUserIDs
// plus this device. recipientUserIDs should include the caller's own user so
// that its other devices receive the key too. Concurrent callers for one
// scope share a single bootstrap; a caller whose ctx ends stops waiting
// but the bootstrap carries on for the rest.
func (b *Broker) EnsureConversationKey(ctx context.Context, scope conversation.Scope, recipientUserIDs []string) (cryptobox.SymmetricKey, error) {
	if err := scope.Validate(); err != nil {
		return cryptobox.SymmetricKey{}, err
	}

	key, found, err := b.lookupCache(ctx, scope)
	if err != nil {
		return cryptobox.SymmetricKey{}, err
	}
	if found {
		return key, nil
	}

	ch := b.inflight.DoChan(scope.String(), func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bootstrapTimeout)
		defer cancel()
		return b.bootstrap(bctx, scope, recipientUserIDs)
	})
	select {
	case <-ctx.Done():
		return cryptobox.SymmetricKey{}, errors.KeyUnavailable(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return cryptobox.SymmetricKey{}, res.Err
		}
		return res.Val.(cryptobox.SymmetricKey), nil
	}
}

// CachedKey looks the key up locally only. It never touches the network.
func (b *Broker) CachedKey(ctx context.Context, scope conversation.Scope) (cryptobox.SymmetricKey, bool) {
	key, found, err := b.lookupCache(ctx, scope)
	if err != nil {
		b.logger.Warn("cached key lookup failed", "scope", scope.String(), "err", err)
		return cryptobox.SymmetricKey{}, false
	}
	return key, found
}

func (b *Broker) lookupCache(ctx context.Context, scope conversation.Scope) (cryptobox.SymmetricKey, bool, error) {
	raw, found, err := b.cache.Get(ctx, cacheKey(scope))
	if err != nil {
		return cryptobox.SymmetricKey{}, false, errors.StorageError(err)
	}
	if !found {
		return cryptobox.SymmetricKey{}, false, nil
	}
	key, err := cryptobox.ParseSymmetricKey(raw)
	if err != nil {
		return cryptobox.SymmetricKey{}, false, errors.StorageError(err)
	}
	return key, true, nil
}

func (b *Broker) bootstrap(ctx context.Context, scope conversation.Scope, recipientUserIDs []string) (cryptobox.SymmetricKey, error) {
	// another caller may have finished the bootstrap while this one waited
	if key, found, err := b.lookupCache(ctx, scope); err != nil || found {
		return key, err
	}

	id, err := b.identity.EnsureIdentity(ctx)
	if err != nil {
		return cryptobox.SymmetricKey{}, err
	}

	key, ok, err := b.openOwnEnvelope(ctx, scope, id)
	if err != nil {
		return cryptobox.SymmetricKey{}, err
	}
	if ok {
		return key, b.remember(ctx, scope, key)
	}

	key, err = b.mint(ctx, scope, id, recipientUserIDs)
	if err != nil {
		return cryptobox.SymmetricKey{}, err
	}
	return key, b.remember(ctx, scope, key)
}

// openOwnEnvelope reports ok=false when there is no envelope for this
// device or it does not open; both cases fall through to minting.
func (b *Broker) openOwnEnvelope(ctx context.Context, scope conversation.Scope, id identity.DeviceIdentity) (cryptobox.SymmetricKey, bool, error) {
	sealed, found, err := b.envelopes.Fetch(ctx, scope.String(), id.DeviceID)
	if err != nil {
		return cryptobox.SymmetricKey{}, false, errors.KeyUnavailable(err)
	}
	if !found {
		return cryptobox.SymmetricKey{}, false, nil
	}

	key, err := b.suite.Open(sealed, id.PublicKey, id.PrivateKey)
	if err != nil {
		b.metrics.EnvelopeFailed()
		b.logger.Warn("own envelope did not open", "scope", scope.String(), "device_id", id.DeviceID, "err", err)
		return cryptobox.SymmetricKey{}, false, nil
	}
	b.metrics.EnvelopeOpened()
	return key, true, nil
}

func (b *Broker) mint(ctx context.Context, scope conversation.Scope, id identity.DeviceIdentity, recipientUserIDs []string) (cryptobox.SymmetricKey, error) {
	key, err := b.suite.GenerateSymmetricKey()
	if err != nil {
		return cryptobox.SymmetricKey{}, errors.KeyUnavailable(err)
	}

	var devices []DeviceKey
	if users := dedupe(recipientUserIDs); len(users) > 0 {
		devices, err = b.directory.Lookup(ctx, users)
		if err != nil {
			return cryptobox.SymmetricKey{}, errors.KeyUnavailable(errors.DirectoryError(err))
		}
	}

	envelopes, err := b.sealForAll(key, id, devices)
	if err != nil {
		return cryptobox.SymmetricKey{}, errors.KeyUnavailable(err)
	}

	err = b.envelopes.Publish(ctx, scope.String(), id.DeviceID, envelopes)
	if err == nil {
		b.metrics.KeyMinted()
		b.logger.Info("conversation key minted", "scope", scope.String(), "envelopes", len(envelopes))
		return key, nil
	}
	if !errors.Is(err, errors.ErrScopeAlreadyKeyed) {
		return cryptobox.SymmetricKey{}, errors.KeyUnavailable(err)
	}

	// lost the race to another device: use its key if it sealed one for us
	winner, ok, ferr := b.openOwnEnvelope(ctx, scope, id)
	if ferr != nil {
		return cryptobox.SymmetricKey{}, ferr
	}
	if !ok {
		b.logger.Warn("scope keyed elsewhere without an envelope for this device", "scope", scope.String(), "device_id", id.DeviceID)
		return cryptobox.SymmetricKey{}, errors.KeyUnavailable(err)
	}
	b.metrics.KeyAdopted()
	b.logger.Info("adopted conversation key minted by another device", "scope", scope.String())
	return winner, nil
}

// sealForAll seals key once per distinct device, always including this
// device under its local public key.
func (b *Broker) sealForAll(key cryptobox.SymmetricKey, id identity.DeviceIdentity, devices []DeviceKey) ([]Envelope, error) {
	own, err := b.suite.Seal(key, id.PublicKey)
	if err != nil {
		return nil, err
	}
	envelopes := []Envelope{{DeviceID: id.DeviceID, SealedKey: own}}

	seen := map[string]bool{id.DeviceID: true}
	for _, d := range devices {
		if seen[d.DeviceID] {
			continue
		}
		seen[d.DeviceID] = true

		sealed, err := b.suite.Seal(key, d.PublicKey)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, Envelope{DeviceID: d.DeviceID, SealedKey: sealed})
	}
	return envelopes, nil
}

func (b *Broker) remember(ctx context.Context, scope conversation.Scope, key cryptobox.SymmetricKey) error {
	if err := b.cache.Set(ctx, cacheKey(scope), key[:]); err != nil {
		return errors.StorageError(err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
