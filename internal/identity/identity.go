// Package identity owns the device keypair: it is created once per
// installation, kept in the local secure cache and published to the
// device key directory.
package identity

import (
	"context"
	"encoding/json"
	"sync"

	"moswords/internal/cryptobox"
	"moswords/internal/securecache"
	"moswords/pkg/errors"
	"moswords/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const storageKey = "device_identity"

type DeviceIdentity struct {
	DeviceID   string
	PublicKey  cryptobox.PublicKey
	PrivateKey cryptobox.PrivateKey
}

// Registrar publishes a device public key. Implementations upsert, so
// repeated calls only refresh last-seen.
type Registrar interface {
	RegisterDevice(ctx context.Context, deviceID string, publicKey cryptobox.PublicKey) error
}

type storedIdentity struct {
	DeviceID   string `json:"device_id"`
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

type Manager struct {
	cache     securecache.Cache
	registrar Registrar
	suite     *cryptobox.Suite
	logger    *logger.Logger

	group singleflight.Group

	mu         sync.Mutex
	current    *DeviceIdentity
	registered bool
}

func NewManager(cache securecache.Cache, registrar Registrar, suite *cryptobox.Suite, log *logger.Logger) *Manager {
	return &Manager{
		cache:     cache,
		registrar: registrar,
		suite:     suite,
		logger:    log.Named("identity"),
	}
}

// EnsureIdentity returns this device's identity, creating and persisting it
// on first use. Concurrent first calls share one generation. A directory
// failure does not fail the call; registration is retried on the next one.
func (m *Manager) EnsureIdentity(ctx context.Context) (DeviceIdentity, error) {
	id, err := m.load(ctx)
	if err != nil {
		return DeviceIdentity{}, err
	}

	if !m.isRegistered() {
		if err := m.register(ctx, id); err != nil {
			m.logger.Warn("device registration failed, will retry", "device_id", id.DeviceID, "err", err)
		}
	}
	return id, nil
}

// Refresh re-registers the device, bumping its last-seen time. Unlike
// EnsureIdentity it reports a directory failure.
func (m *Manager) Refresh(ctx context.Context) error {
	id, err := m.load(ctx)
	if err != nil {
		return err
	}
	return m.register(ctx, id)
}

// Forget drops the stored identity. The next EnsureIdentity mints a new
// device; envelopes sealed to the old one become unreachable.
func (m *Manager) Forget(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.cache.Delete(ctx, storageKey); err != nil {
		return errors.StorageError(err)
	}
	m.current = nil
	m.registered = false
	return nil
}

func (m *Manager) isRegistered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}

func (m *Manager) load(ctx context.Context) (DeviceIdentity, error) {
	m.mu.Lock()
	if m.current != nil {
		id := *m.current
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(storageKey, func() (any, error) {
		return m.loadOrGenerate(ctx)
	})
	if err != nil {
		return DeviceIdentity{}, err
	}
	return v.(DeviceIdentity), nil
}

func (m *Manager) loadOrGenerate(ctx context.Context) (DeviceIdentity, error) {
	m.mu.Lock()
	if m.current != nil {
		id := *m.current
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	raw, found, err := m.cache.Get(ctx, storageKey)
	if err != nil {
		return DeviceIdentity{}, errors.StorageError(err)
	}

	var id DeviceIdentity
	if found {
		id, err = decode(raw)
		if err != nil {
			// never replace a stored identity silently: envelopes are sealed to it
			return DeviceIdentity{}, errors.StorageError(err)
		}
	} else {
		id, err = m.generate()
		if err != nil {
			return DeviceIdentity{}, err
		}
		raw, err := encode(id)
		if err != nil {
			return DeviceIdentity{}, errors.StorageError(err)
		}
		if err := m.cache.Set(ctx, storageKey, raw); err != nil {
			return DeviceIdentity{}, errors.StorageError(err)
		}
		m.logger.Info("device identity created", "device_id", id.DeviceID)
	}

	m.mu.Lock()
	m.current = &id
	m.mu.Unlock()
	return id, nil
}

func (m *Manager) generate() (DeviceIdentity, error) {
	deviceID, err := uuid.NewRandom()
	if err != nil {
		return DeviceIdentity{}, errors.Wrap(errors.CodeInternal, "failed to generate device id", err)
	}
	kp, err := m.suite.GenerateKeyPair()
	if err != nil {
		return DeviceIdentity{}, errors.Wrap(errors.CodeInternal, "failed to generate device keypair", err)
	}
	return DeviceIdentity{DeviceID: deviceID.String(), PublicKey: kp.Public, PrivateKey: kp.Private}, nil
}

func (m *Manager) register(ctx context.Context, id DeviceIdentity) error {
	_, err, _ := m.group.Do("register", func() (any, error) {
		if err := m.registrar.RegisterDevice(ctx, id.DeviceID, id.PublicKey); err != nil {
			return nil, errors.DirectoryError(err)
		}
		m.mu.Lock()
		if m.current != nil && m.current.DeviceID == id.DeviceID {
			m.registered = true
		}
		m.mu.Unlock()
		return nil, nil
	})
	return err
}

func encode(id DeviceIdentity) ([]byte, error) {
	return json.Marshal(storedIdentity{
		DeviceID:   id.DeviceID,
		PublicKey:  id.PublicKey[:],
		PrivateKey: id.PrivateKey[:],
	})
}

func decode(raw []byte) (DeviceIdentity, error) {
	var s storedIdentity
	if err := json.Unmarshal(raw, &s); err != nil {
		return DeviceIdentity{}, err
	}
	if _, err := uuid.Parse(s.DeviceID); err != nil {
		return DeviceIdentity{}, err
	}
	pub, err := cryptobox.ParsePublicKey(s.PublicKey)
	if err != nil {
		return DeviceIdentity{}, err
	}
	priv, err := cryptobox.ParsePrivateKey(s.PrivateKey)
	if err != nil {
		return DeviceIdentity{}, err
	}
	derived, err := cryptobox.PublicFromPrivate(priv)
	if err != nil {
		return DeviceIdentity{}, err
	}
	if derived != pub {
		return DeviceIdentity{}, errors.New(errors.CodeDataLoss, "stored device keypair does not match")
	}
	return DeviceIdentity{DeviceID: s.DeviceID, PublicKey: pub, PrivateKey: priv}, nil
}
