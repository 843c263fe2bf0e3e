package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"moswords/internal/device/model"

	"github.com/google/uuid"
)

type deviceKeyID struct {
	userID   uuid.UUID
	deviceID uuid.UUID
}

// MemoryDeviceRepository is the in-process directory used when the server
// runs without postgres and by protocol tests.
type MemoryDeviceRepository struct {
	mu   sync.RWMutex
	keys map[deviceKeyID]model.DeviceKey
}

func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{keys: make(map[deviceKeyID]model.DeviceKey)}
}

func (r *MemoryDeviceRepository) UpsertDeviceKey(_ context.Context, key *model.DeviceKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for existing := range r.keys {
		if existing.deviceID == key.DeviceID && existing.userID != key.UserID {
			return ErrDeviceOwnedElsewhere
		}
	}

	id := deviceKeyID{key.UserID, key.DeviceID}
	row := *key
	row.PublicKey = append([]byte(nil), key.PublicKey...)
	if prev, ok := r.keys[id]; ok {
		row.RegisteredAt = prev.RegisteredAt
	}
	r.keys[id] = row
	return nil
}

func (r *MemoryDeviceRepository) GetDeviceKey(_ context.Context, userID, deviceID uuid.UUID) (*model.DeviceKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[deviceKeyID{userID, deviceID}]
	if !ok {
		return nil, ErrDeviceKeyNotFound
	}
	return &key, nil
}

func (r *MemoryDeviceRepository) ListDeviceKeys(_ context.Context, userIDs []uuid.UUID) ([]model.DeviceKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	keys := make([]model.DeviceKey, 0)
	for id, key := range r.keys {
		if wanted[id.userID] {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].UserID[:], keys[j].UserID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].DeviceID[:], keys[j].DeviceID[:]) < 0
	})
	return keys, nil
}
