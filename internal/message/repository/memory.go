package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"moswords/internal/message/model"

	"github.com/google/uuid"
)

type MemoryMessageRepository struct {
	mu   sync.RWMutex
	msgs map[uuid.UUID]model.Message
	now  func() time.Time
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		msgs: make(map[uuid.UUID]model.Message),
		now:  time.Now,
	}
}

func (r *MemoryMessageRepository) Create(_ context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = r.now().UTC()
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	r.msgs[msg.ID] = clone(*msg)
	return nil
}

func (r *MemoryMessageRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.msgs[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	out := clone(msg)
	return &out, nil
}

func (r *MemoryMessageRepository) ListByScope(_ context.Context, scope string, limit int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := make([]model.Message, 0)
	for _, m := range r.msgs {
		if m.Scope == scope {
			msgs = append(msgs, clone(m))
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].SentAt.Equal(msgs[j].SentAt) {
			return msgs[i].SentAt.Before(msgs[j].SentAt)
		}
		return msgs[i].ID.String() < msgs[j].ID.String()
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (r *MemoryMessageRepository) UpdateCiphertext(_ context.Context, id uuid.UUID, ciphertext, nonce []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.msgs[id]
	if !ok {
		return ErrMessageNotFound
	}
	encrypted := true
	msg.Ciphertext = append([]byte(nil), ciphertext...)
	msg.Nonce = append([]byte(nil), nonce...)
	msg.IsEncrypted = &encrypted
	msg.Content = ""
	r.msgs[id] = msg
	return nil
}

func clone(m model.Message) model.Message {
	m.Ciphertext = append([]byte(nil), m.Ciphertext...)
	m.Nonce = append([]byte(nil), m.Nonce...)
	if m.IsEncrypted != nil {
		flag := *m.IsEncrypted
		m.IsEncrypted = &flag
	}
	return m
}
