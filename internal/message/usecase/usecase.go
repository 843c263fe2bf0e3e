package usecase

import (
	"context"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/internal/message"
	"moswords/internal/message/model"
	"moswords/internal/message/repository"
	"moswords/pkg/errors"
	"moswords/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type MessageUsecase struct {
	repo   message.MessageRepository
	logger logger.Logger
}

func NewMessageUsecase(repo message.MessageRepository, logger logger.Logger) *MessageUsecase {
	return &MessageUsecase{repo: repo, logger: logger}
}

func (uc *MessageUsecase) Post(ctx context.Context, senderID uuid.UUID, cmd message.PostMessageCommand) (*message.MessageDTO, error) {
	if senderID == uuid.Nil {
		return nil, errors.ErrInvalidUserID
	}
	if _, err := conversation.Parse(cmd.Scope); err != nil {
		return nil, errors.ErrInvalidScope
	}

	msg := &model.Message{
		Scope:       cmd.Scope,
		SenderID:    senderID,
		MessageType: cmd.MessageType,
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}

	switch {
	case len(cmd.Ciphertext) > 0:
		if len(cmd.Nonce) != cryptobox.NonceSize || cmd.Content != "" {
			return nil, errors.ErrInvalidMessage
		}
		encrypted := true
		msg.Ciphertext = cmd.Ciphertext
		msg.Nonce = cmd.Nonce
		msg.IsEncrypted = &encrypted
	case cmd.Content != "":
		// accepted from clients that predate encryption; readers migrate it
		if len(cmd.Nonce) > 0 {
			return nil, errors.ErrInvalidMessage
		}
		encrypted := false
		msg.Content = cmd.Content
		msg.IsEncrypted = &encrypted
	default:
		return nil, errors.ErrInvalidMessage
	}

	if err := uc.repo.Create(ctx, msg); err != nil {
		uc.logger.Error("failed to create message", "scope", cmd.Scope, "err", err)
		return nil, errors.Internal("failed to store message")
	}
	return toDTO(msg), nil
}

func (uc *MessageUsecase) List(ctx context.Context, scope string, limit int) ([]message.MessageDTO, error) {
	if _, err := conversation.Parse(scope); err != nil {
		return nil, errors.ErrInvalidScope
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	msgs, err := uc.repo.ListByScope(ctx, scope, limit)
	if err != nil {
		uc.logger.Error("failed to list messages", "scope", scope, "err", err)
		return nil, errors.Unavailable("message lookup failed")
	}

	out := make([]message.MessageDTO, 0, len(msgs))
	for i := range msgs {
		out = append(out, *toDTO(&msgs[i]))
	}
	return out, nil
}

func (uc *MessageUsecase) Migrate(ctx context.Context, id uuid.UUID, cmd message.MigrateMessageCommand) error {
	if len(cmd.Ciphertext) == 0 || len(cmd.Nonce) != cryptobox.NonceSize {
		return errors.ErrInvalidMessage
	}

	err := uc.repo.UpdateCiphertext(ctx, id, cmd.Ciphertext, cmd.Nonce)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return errors.ErrMessageNotFound
		}
		uc.logger.Error("failed to migrate message", "message_id", id, "err", err)
		return errors.Unavailable("message update failed")
	}

	uc.logger.Debug("message migrated to ciphertext", "message_id", id)
	return nil
}

func toDTO(m *model.Message) *message.MessageDTO {
	return &message.MessageDTO{
		ID:          m.ID,
		Scope:       m.Scope,
		SenderID:    m.SenderID,
		Content:     m.Content,
		Ciphertext:  m.Ciphertext,
		Nonce:       m.Nonce,
		IsEncrypted: m.IsEncrypted,
		MessageType: m.MessageType,
		SentAt:      m.SentAt,
		EditedAt:    m.EditedAt,
	}
}
