package repository

import (
	"context"
	"database/sql"

	"moswords/internal/message/model"
	"moswords/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type MessageRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

var ErrMessageNotFound = errors.New("message not found")

func NewMessageRepository(db *bun.DB, logger logger.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: &logger,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	_, err := r.db.NewInsert().
		Model(msg).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "messageRepo.Create.Exec: ")
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	msg := new(model.Message)
	err := r.db.NewSelect().
		Model(msg).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, errors.Wrap(err, "messageRepo.GetByID.Scan: ")
	}
	return msg, nil
}

func (r *MessageRepository) ListByScope(ctx context.Context, scope string, limit int) ([]model.Message, error) {
	msgs := make([]model.Message, 0)
	err := r.db.NewSelect().
		Model(&msgs).
		Where("scope = ?", scope).
		Order("sent_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.ListByScope.Scan: ")
	}
	reverse(msgs)
	return msgs, nil
}

func (r *MessageRepository) UpdateCiphertext(ctx context.Context, id uuid.UUID, ciphertext, nonce []byte) error {
	res, err := r.db.NewUpdate().
		Model((*model.Message)(nil)).
		Set("ciphertext = ?", ciphertext).
		Set("nonce = ?", nonce).
		Set("is_encrypted = ?", true).
		Set("content = NULL").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "messageRepo.UpdateCiphertext.Exec: ")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "messageRepo.UpdateCiphertext.RowsAffected: ")
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func reverse(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
