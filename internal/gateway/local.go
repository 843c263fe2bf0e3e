package gateway

import (
	"context"

	"moswords/internal/api"
	"moswords/internal/broker"
	"moswords/internal/cryptobox"
	"moswords/internal/device"
	"moswords/internal/envelope"
	"moswords/internal/message"
	"moswords/pkg/errors"

	"github.com/google/uuid"
)

// Local calls the server usecases directly, acting as userID. It is what
// Client is over HTTP, minus the wire.
type Local struct {
	devices   device.DeviceUsecase
	envelopes envelope.EnvelopeUsecase
	messages  message.MessageUsecase
	userID    uuid.UUID
}

func NewLocal(devices device.DeviceUsecase, envelopes envelope.EnvelopeUsecase, messages message.MessageUsecase, userID uuid.UUID) *Local {
	return &Local{
		devices:   devices,
		envelopes: envelopes,
		messages:  messages,
		userID:    userID,
	}
}

func (l *Local) RegisterDevice(ctx context.Context, deviceID string, publicKey cryptobox.PublicKey) error {
	_, err := l.devices.RegisterDevice(ctx, l.userID, device.RegisterDeviceCommand{
		DeviceID:  deviceID,
		PublicKey: publicKey[:],
	})
	return err
}

func (l *Local) Lookup(ctx context.Context, userIDs []string) ([]broker.DeviceKey, error) {
	ids := make([]uuid.UUID, 0, len(userIDs))
	for _, s := range userIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.ErrInvalidUserID
		}
		ids = append(ids, id)
	}

	dtos, err := l.devices.GetDeviceKeys(ctx, ids)
	if err != nil {
		return nil, err
	}

	keys := make([]broker.DeviceKey, 0, len(dtos))
	for _, d := range dtos {
		pub, err := cryptobox.ParsePublicKey(d.PublicKey)
		if err != nil {
			return nil, err
		}
		keys = append(keys, broker.DeviceKey{UserID: d.UserID.String(), DeviceID: d.DeviceID.String(), PublicKey: pub})
	}
	return keys, nil
}

func (l *Local) Fetch(ctx context.Context, scope, deviceID string) ([]byte, bool, error) {
	env, err := l.envelopes.GetEnvelope(ctx, scope, deviceID)
	if err != nil {
		if errors.Is(err, errors.ErrEnvelopeNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return env.SealedKey, true, nil
}

func (l *Local) Publish(ctx context.Context, scope, writerDeviceID string, envelopes []broker.Envelope) error {
	entries := make([]envelope.EnvelopeEntry, 0, len(envelopes))
	for _, e := range envelopes {
		entries = append(entries, envelope.EnvelopeEntry{DeviceID: e.DeviceID, SealedKey: e.SealedKey})
	}
	return l.envelopes.PutEnvelopes(ctx, l.userID, envelope.PutEnvelopesCommand{
		Scope:          scope,
		WriterDeviceID: writerDeviceID,
		Entries:        entries,
	})
}

func (l *Local) PostMessage(ctx context.Context, req api.PostMessageRequest) (*api.MessageResponse, error) {
	msg, err := l.messages.Post(ctx, l.userID, message.PostMessageCommand{
		Scope:       req.Scope,
		Content:     req.Content,
		Ciphertext:  req.Ciphertext,
		Nonce:       req.Nonce,
		MessageType: req.MessageType,
	})
	if err != nil {
		return nil, err
	}
	resp := toMessageResponse(*msg)
	return &resp, nil
}

func (l *Local) ListMessages(ctx context.Context, scope string, limit int) ([]api.MessageResponse, error) {
	msgs, err := l.messages.List(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	out := make([]api.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out, nil
}

func (l *Local) UpdateCiphertext(ctx context.Context, messageID string, payload cryptobox.Payload) error {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return errors.ErrMessageNotFound
	}
	return l.messages.Migrate(ctx, id, message.MigrateMessageCommand{
		Ciphertext: payload.Ciphertext,
		Nonce:      payload.Nonce,
	})
}

func toMessageResponse(m message.MessageDTO) api.MessageResponse {
	return api.MessageResponse{
		ID:          m.ID.String(),
		Scope:       m.Scope,
		SenderID:    m.SenderID.String(),
		Content:     m.Content,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		IsEncrypted: m.IsEncrypted,
		MessageType: m.MessageType,
		SentAt:      m.SentAt,
		EditedAt:    m.EditedAt,
	}
}
