package usecase

import (
	"context"
	"time"

	"moswords/internal/cryptobox"
	"moswords/internal/device"
	"moswords/internal/device/model"
	"moswords/internal/device/repository"
	"moswords/pkg/errors"
	"moswords/pkg/logger"

	"github.com/google/uuid"
)

// MaxLookupUsers bounds one batched directory lookup.
const MaxLookupUsers = 256

type DeviceUsecase struct {
	repo   device.DeviceRepository
	logger logger.Logger
	now    func() time.Time
}

func NewDeviceUsecase(repo device.DeviceRepository, logger logger.Logger) *DeviceUsecase {
	return &DeviceUsecase{repo: repo, logger: logger, now: time.Now}
}

func (uc *DeviceUsecase) RegisterDevice(ctx context.Context, userID uuid.UUID, cmd device.RegisterDeviceCommand) (*device.DeviceKeyDTO, error) {
	if userID == uuid.Nil {
		return nil, errors.ErrInvalidUserID
	}
	deviceID, err := uuid.Parse(cmd.DeviceID)
	if err != nil || deviceID == uuid.Nil {
		return nil, errors.ErrInvalidDeviceID
	}
	if _, err := cryptobox.ParsePublicKey(cmd.PublicKey); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	key := &model.DeviceKey{
		UserID:       userID,
		DeviceID:     deviceID,
		PublicKey:    cmd.PublicKey,
		RegisteredAt: now,
		LastSeenAt:   now,
	}
	if err := uc.repo.UpsertDeviceKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrDeviceOwnedElsewhere) {
			uc.logger.Warn("device id already registered by another user", "user_id", userID, "device_id", deviceID)
			return nil, errors.ErrDeviceIDTaken
		}
		uc.logger.Error("failed to upsert device key", "user_id", userID, "device_id", deviceID, "err", err)
		return nil, errors.Internal("failed to register device")
	}

	uc.logger.Debug("device key registered", "user_id", userID, "device_id", deviceID)
	return toDTO(key), nil
}

func (uc *DeviceUsecase) GetDeviceKeys(ctx context.Context, userIDs []uuid.UUID) ([]device.DeviceKeyDTO, error) {
	if len(userIDs) == 0 {
		return []device.DeviceKeyDTO{}, nil
	}
	if len(userIDs) > MaxLookupUsers {
		return nil, errors.ErrTooManyUsers
	}

	seen := make(map[uuid.UUID]bool, len(userIDs))
	unique := make([]uuid.UUID, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			return nil, errors.ErrInvalidUserID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	keys, err := uc.repo.ListDeviceKeys(ctx, unique)
	if err != nil {
		uc.logger.Error("failed to list device keys", "users", len(unique), "err", err)
		return nil, errors.Unavailable("device key lookup failed")
	}

	out := make([]device.DeviceKeyDTO, 0, len(keys))
	for i := range keys {
		out = append(out, *toDTO(&keys[i]))
	}
	return out, nil
}

func toDTO(k *model.DeviceKey) *device.DeviceKeyDTO {
	return &device.DeviceKeyDTO{
		UserID:     k.UserID,
		DeviceID:   k.DeviceID,
		PublicKey:  k.PublicKey,
		LastSeenAt: k.LastSeenAt,
	}
}
