package usecase

import (
	"context"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	"moswords/internal/device"
	devicerepo "moswords/internal/device/repository"
	"moswords/internal/envelope"
	"moswords/internal/envelope/model"
	"moswords/internal/envelope/repository"
	"moswords/pkg/errors"
	"moswords/pkg/logger"

	"github.com/google/uuid"
)

// MaxEnvelopeBatch bounds the number of devices one key can be sealed for.
const MaxEnvelopeBatch = 4096

type EnvelopeUsecase struct {
	repo      envelope.EnvelopeRepository
	devices   device.DeviceRepository
	logger    logger.Logger
	exclusive bool
}

// NewEnvelopeUsecase builds the usecase. With exclusive set, the first
// batch written for a scope wins and later minters get ErrScopeAlreadyKeyed.
// devices proves that a writer device belongs to the caller.
func NewEnvelopeUsecase(repo envelope.EnvelopeRepository, devices device.DeviceRepository, logger logger.Logger, exclusive bool) *EnvelopeUsecase {
	return &EnvelopeUsecase{repo: repo, devices: devices, logger: logger, exclusive: exclusive}
}

func (uc *EnvelopeUsecase) GetEnvelope(ctx context.Context, scope, deviceID string) (*envelope.EnvelopeDTO, error) {
	if _, err := conversation.Parse(scope); err != nil {
		return nil, errors.ErrInvalidScope
	}
	id, err := uuid.Parse(deviceID)
	if err != nil || id == uuid.Nil {
		return nil, errors.ErrInvalidDeviceID
	}

	env, err := uc.repo.GetEnvelope(ctx, scope, id)
	if err != nil {
		if errors.Is(err, repository.ErrEnvelopeNotFound) {
			return nil, errors.ErrEnvelopeNotFound
		}
		uc.logger.Error("failed to get envelope", "scope", scope, "device_id", id, "err", err)
		return nil, errors.Unavailable("envelope lookup failed")
	}

	return &envelope.EnvelopeDTO{
		Scope:          env.Scope,
		DeviceID:       env.DeviceID,
		SealedKey:      env.SealedKey,
		WriterDeviceID: env.WriterDeviceID,
	}, nil
}

// PutEnvelopes stores a batch written by one of userID's own devices. Only
// the participants of a direct message may key it.
func (uc *EnvelopeUsecase) PutEnvelopes(ctx context.Context, userID uuid.UUID, cmd envelope.PutEnvelopesCommand) error {
	if userID == uuid.Nil {
		return errors.ErrInvalidUserID
	}
	scope, err := conversation.Parse(cmd.Scope)
	if err != nil {
		return errors.ErrInvalidScope
	}
	if users := scope.Participants(); users != nil && users[0] != userID.String() && users[1] != userID.String() {
		return errors.ErrNotParticipant
	}
	writer, err := uuid.Parse(cmd.WriterDeviceID)
	if err != nil || writer == uuid.Nil {
		return errors.ErrInvalidDeviceID
	}
	if len(cmd.Entries) == 0 {
		return errors.ErrEmptyEnvelopeBatch
	}
	if len(cmd.Entries) > MaxEnvelopeBatch {
		return errors.InvalidArg("too many envelopes in one batch")
	}

	seen := make(map[uuid.UUID]bool, len(cmd.Entries))
	rows := make([]model.KeyEnvelope, 0, len(cmd.Entries))
	for _, e := range cmd.Entries {
		id, err := uuid.Parse(e.DeviceID)
		if err != nil || id == uuid.Nil {
			return errors.ErrInvalidDeviceID
		}
		if len(e.SealedKey) != cryptobox.SealedKeySize {
			return errors.ErrInvalidSealedKey
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.KeyEnvelope{DeviceID: id, SealedKey: e.SealedKey})
	}

	if _, err := uc.devices.GetDeviceKey(ctx, userID, writer); err != nil {
		if errors.Is(err, devicerepo.ErrDeviceKeyNotFound) {
			uc.logger.Warn("envelope write for a device the caller does not own", "user_id", userID, "writer", writer)
			return errors.ErrNotDeviceOwner
		}
		uc.logger.Error("failed to look up writer device", "user_id", userID, "writer", writer, "err", err)
		return errors.Unavailable("device key lookup failed")
	}

	err = uc.repo.PutEnvelopes(ctx, cmd.Scope, writer, rows, uc.exclusive)
	if err != nil {
		if errors.Is(err, repository.ErrScopeKeyed) {
			uc.logger.Info("rejected second key for scope", "scope", cmd.Scope, "writer", writer)
			return errors.ErrScopeAlreadyKeyed
		}
		uc.logger.Error("failed to put envelopes", "scope", cmd.Scope, "writer", writer, "err", err)
		return errors.Unavailable("envelope write failed")
	}

	uc.logger.Debug("envelopes stored", "scope", cmd.Scope, "writer", writer, "count", len(rows))
	return nil
}
