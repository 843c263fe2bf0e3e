package repository

import (
	"context"
	"database/sql"
	"time"

	"moswords/internal/envelope/model"
	"moswords/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type EnvelopeRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

var (
	ErrEnvelopeNotFound = errors.New("key envelope not found")
	ErrScopeKeyed       = errors.New("scope already has envelopes")
)

func NewEnvelopeRepository(db *bun.DB, logger logger.Logger) *EnvelopeRepository {
	return &EnvelopeRepository{
		db:     db,
		logger: &logger,
	}
}

func (r *EnvelopeRepository) GetEnvelope(ctx context.Context, scope string, deviceID uuid.UUID) (*model.KeyEnvelope, error) {
	env := new(model.KeyEnvelope)
	err := r.db.NewSelect().
		Model(env).
		Where("scope = ?", scope).
		Where("device_id = ?", deviceID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnvelopeNotFound
		}
		return nil, errors.Wrap(err, "envelopeRepo.GetEnvelope.Scan: ")
	}
	return env, nil
}

func (r *EnvelopeRepository) HasEnvelopes(ctx context.Context, scope string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*model.KeyEnvelope)(nil)).
		Where("scope = ?", scope).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, "envelopeRepo.HasEnvelopes.Exists: ")
	}
	return exists, nil
}

func (r *EnvelopeRepository) PutEnvelopes(ctx context.Context, scope string, writerDeviceID uuid.UUID, envelopes []model.KeyEnvelope, exclusive bool) error {
	own, others := splitByWriter(scope, writerDeviceID, envelopes, time.Now().UTC())

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// serialises concurrent minters of the same scope until commit
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", scope); err != nil {
			return errors.Wrap(err, "envelopeRepo.PutEnvelopes.Lock: ")
		}

		if exclusive {
			exists, err := tx.NewSelect().
				Model((*model.KeyEnvelope)(nil)).
				Where("scope = ?", scope).
				Exists(ctx)
			if err != nil {
				return errors.Wrap(err, "envelopeRepo.PutEnvelopes.Exists: ")
			}
			if exists {
				return ErrScopeKeyed
			}
		}

		if len(others) > 0 {
			_, err := tx.NewInsert().
				Model(&others).
				On("CONFLICT (scope, device_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return errors.Wrap(err, "envelopeRepo.PutEnvelopes.InsertOthers: ")
			}
		}

		if own != nil {
			_, err := tx.NewInsert().
				Model(own).
				On("CONFLICT (scope, device_id) DO UPDATE").
				Set("sealed_key = EXCLUDED.sealed_key").
				Set("writer_device_id = EXCLUDED.writer_device_id").
				Set("updated_at = EXCLUDED.updated_at").
				Exec(ctx)
			if err != nil {
				return errors.Wrap(err, "envelopeRepo.PutEnvelopes.UpsertOwn: ")
			}
		}
		return nil
	})
}

// splitByWriter stamps every row with the batch's scope, writer and time and
// separates the writer's own row from the rest.
func splitByWriter(scope string, writer uuid.UUID, envelopes []model.KeyEnvelope, now time.Time) (*model.KeyEnvelope, []model.KeyEnvelope) {
	var own *model.KeyEnvelope
	others := make([]model.KeyEnvelope, 0, len(envelopes))
	for _, e := range envelopes {
		e.Scope = scope
		e.WriterDeviceID = writer
		e.CreatedAt = now
		e.UpdatedAt = now
		if e.DeviceID == writer {
			row := e
			own = &row
			continue
		}
		others = append(others, e)
	}
	return own, others
}
