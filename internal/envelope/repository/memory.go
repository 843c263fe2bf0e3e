package repository

import (
	"context"
	"sync"
	"time"

	"moswords/internal/envelope/model"

	"github.com/google/uuid"
)

type envelopeKey struct {
	scope    string
	deviceID uuid.UUID
}

// MemoryEnvelopeRepository keeps envelopes in process. It follows the same
// write rules as the postgres repository, with one mutex standing in for
// the advisory lock.
type MemoryEnvelopeRepository struct {
	mu   sync.Mutex
	rows map[envelopeKey]model.KeyEnvelope
	now  func() time.Time
}

func NewMemoryEnvelopeRepository() *MemoryEnvelopeRepository {
	return &MemoryEnvelopeRepository{
		rows: make(map[envelopeKey]model.KeyEnvelope),
		now:  time.Now,
	}
}

func (r *MemoryEnvelopeRepository) GetEnvelope(_ context.Context, scope string, deviceID uuid.UUID) (*model.KeyEnvelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	env, ok := r.rows[envelopeKey{scope, deviceID}]
	if !ok {
		return nil, ErrEnvelopeNotFound
	}
	env.SealedKey = append([]byte(nil), env.SealedKey...)
	return &env, nil
}

func (r *MemoryEnvelopeRepository) HasEnvelopes(_ context.Context, scope string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasScope(scope), nil
}

func (r *MemoryEnvelopeRepository) hasScope(scope string) bool {
	for k := range r.rows {
		if k.scope == scope {
			return true
		}
	}
	return false
}

func (r *MemoryEnvelopeRepository) PutEnvelopes(_ context.Context, scope string, writerDeviceID uuid.UUID, envelopes []model.KeyEnvelope, exclusive bool) error {
	own, others := splitByWriter(scope, writerDeviceID, envelopes, r.now().UTC())

	r.mu.Lock()
	defer r.mu.Unlock()

	if exclusive && r.hasScope(scope) {
		return ErrScopeKeyed
	}

	for _, e := range others {
		k := envelopeKey{scope, e.DeviceID}
		if _, exists := r.rows[k]; exists {
			continue
		}
		e.SealedKey = append([]byte(nil), e.SealedKey...)
		r.rows[k] = e
	}
	if own != nil {
		k := envelopeKey{scope, own.DeviceID}
		row := *own
		row.SealedKey = append([]byte(nil), own.SealedKey...)
		if prev, exists := r.rows[k]; exists {
			row.CreatedAt = prev.CreatedAt
		}
		r.rows[k] = row
	}
	return nil
}
