package repository

import (
	"context"
	"database/sql"

	"moswords/internal/device/model"
	"moswords/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type DeviceRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

var (
	ErrDeviceKeyNotFound    = errors.New("device key not found")
	ErrDeviceOwnedElsewhere = errors.New("device id belongs to another user")
)

// uniqueViolation is the postgres SQLSTATE raised by idx_device_keys_device_id.
const uniqueViolation = "23505"

func NewDeviceRepository(db *bun.DB, logger logger.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: &logger,
	}
}

func (r *DeviceRepository) UpsertDeviceKey(ctx context.Context, key *model.DeviceKey) error {
	_, err := r.db.NewInsert().
		Model(key).
		On("CONFLICT (user_id, device_id) DO UPDATE").
		Set("public_key = EXCLUDED.public_key").
		Set("last_seen_at = EXCLUDED.last_seen_at").
		Returning("*").
		Exec(ctx)

	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return ErrDeviceOwnedElsewhere
		}
		return errors.Wrap(err, "deviceRepo.UpsertDeviceKey.Exec: ")
	}
	return nil
}

func (r *DeviceRepository) GetDeviceKey(ctx context.Context, userID, deviceID uuid.UUID) (*model.DeviceKey, error) {
	key := new(model.DeviceKey)
	err := r.db.NewSelect().
		Model(key).
		Where("user_id = ?", userID).
		Where("device_id = ?", deviceID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceKeyNotFound
		}
		return nil, errors.Wrap(err, "deviceRepo.GetDeviceKey.Scan: ")
	}
	return key, nil
}

func (r *DeviceRepository) ListDeviceKeys(ctx context.Context, userIDs []uuid.UUID) ([]model.DeviceKey, error) {
	keys := make([]model.DeviceKey, 0)
	if len(userIDs) == 0 {
		return keys, nil
	}

	err := r.db.NewSelect().
		Model(&keys).
		Where("user_id IN (?)", bun.In(userIDs)).
		Order("user_id ASC", "device_id ASC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, "deviceRepo.ListDeviceKeys.Scan: ")
	}
	return keys, nil
}
