package usecase

import (
	"context"
	"testing"

	"moswords/internal/conversation"
	"moswords/internal/cryptobox"
	devicemocks "moswords/internal/device/mocks"
	devicemodel "moswords/internal/device/model"
	devicerepo "moswords/internal/device/repository"
	"moswords/internal/envelope"
	"moswords/internal/envelope/mocks"
	"moswords/internal/envelope/model"
	"moswords/internal/envelope/repository"
	appErrors "moswords/pkg/errors"
	"moswords/pkg/logger"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = uuid.New()
	bob   = uuid.New()
	scope = conversation.DirectMessage(alice.String(), bob.String()).String()
)

func sealed(fill byte) []byte {
	b := make([]byte, cryptobox.SealedKeySize)
	for i := range b {
		b[i] = fill
	}
	return b
}

func TestEnvelopeUsecase_GetEnvelope(t *testing.T) {
	deviceID := uuid.New()

	t.Run("happy path", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		mockRepo.EXPECT().GetEnvelope(gomock.Any(), scope, deviceID).
			Return(&model.KeyEnvelope{Scope: scope, DeviceID: deviceID, SealedKey: sealed(7)}, nil)

		got, err := uc.GetEnvelope(context.Background(), scope, deviceID.String())
		require.NoError(t, err)
		assert.Equal(t, sealed(7), got.SealedKey)
		assert.Equal(t, deviceID, got.DeviceID)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		mockRepo.EXPECT().GetEnvelope(gomock.Any(), scope, deviceID).Return(nil, repository.ErrEnvelopeNotFound)

		_, err := uc.GetEnvelope(context.Background(), scope, deviceID.String())
		assert.ErrorIs(t, err, appErrors.ErrEnvelopeNotFound)
	})

	t.Run("invalid scope", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := NewEnvelopeUsecase(mocks.NewMockEnvelopeRepository(ctrl), devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		_, err := uc.GetEnvelope(context.Background(), "dm:"+"zed:amy", deviceID.String())
		assert.ErrorIs(t, err, appErrors.ErrInvalidScope)
	})

	t.Run("invalid device id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := NewEnvelopeUsecase(mocks.NewMockEnvelopeRepository(ctrl), devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		_, err := uc.GetEnvelope(context.Background(), scope, "phone")
		assert.ErrorIs(t, err, appErrors.ErrInvalidDeviceID)
	})

	t.Run("repository failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		mockRepo.EXPECT().GetEnvelope(gomock.Any(), scope, deviceID).Return(nil, errors.New("connection reset"))

		_, err := uc.GetEnvelope(context.Background(), scope, deviceID.String())
		assert.Equal(t, appErrors.CodeUnavailable, appErrors.CodeOf(err))
	})
}

func TestEnvelopeUsecase_PutEnvelopes(t *testing.T) {
	writer, other := uuid.New(), uuid.New()

	owned := &devicemodel.DeviceKey{UserID: alice, DeviceID: writer}

	t.Run("happy path dedupes entries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		mockDevices := devicemocks.NewMockDeviceRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, mockDevices, logger.Logger{}, true)

		mockDevices.EXPECT().GetDeviceKey(gomock.Any(), alice, writer).Return(owned, nil)
		mockRepo.EXPECT().
			PutEnvelopes(gomock.Any(), scope, writer, gomock.Any(), true).
			DoAndReturn(func(_ context.Context, _ string, _ uuid.UUID, rows []model.KeyEnvelope, _ bool) error {
				require.Len(t, rows, 2)
				assert.Equal(t, writer, rows[0].DeviceID)
				assert.Equal(t, other, rows[1].DeviceID)
				return nil
			})

		err := uc.PutEnvelopes(context.Background(), alice, envelope.PutEnvelopesCommand{
			Scope:          scope,
			WriterDeviceID: writer.String(),
			Entries: []envelope.EnvelopeEntry{
				{DeviceID: writer.String(), SealedKey: sealed(1)},
				{DeviceID: other.String(), SealedKey: sealed(2)},
				{DeviceID: other.String(), SealedKey: sealed(3)},
			},
		})
		require.NoError(t, err)
	})

	t.Run("scope already keyed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		mockDevices := devicemocks.NewMockDeviceRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, mockDevices, logger.Logger{}, true)

		mockDevices.EXPECT().GetDeviceKey(gomock.Any(), alice, writer).Return(owned, nil)
		mockRepo.EXPECT().PutEnvelopes(gomock.Any(), scope, writer, gomock.Any(), true).Return(repository.ErrScopeKeyed)

		err := uc.PutEnvelopes(context.Background(), alice, envelope.PutEnvelopesCommand{
			Scope:          scope,
			WriterDeviceID: writer.String(),
			Entries:        []envelope.EnvelopeEntry{{DeviceID: writer.String(), SealedKey: sealed(1)}},
		})
		assert.ErrorIs(t, err, appErrors.ErrScopeAlreadyKeyed)
		assert.Equal(t, appErrors.CodeAlreadyExists, appErrors.CodeOf(err))
	})

	t.Run("sad path - writer device belongs to someone else", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		mockDevices := devicemocks.NewMockDeviceRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, mockDevices, logger.Logger{}, true)

		// bob names alice's device as the writer
		mockDevices.EXPECT().GetDeviceKey(gomock.Any(), bob, writer).Return(nil, devicerepo.ErrDeviceKeyNotFound)
		mockRepo.EXPECT().PutEnvelopes(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := uc.PutEnvelopes(context.Background(), bob, envelope.PutEnvelopesCommand{
			Scope:          scope,
			WriterDeviceID: writer.String(),
			Entries:        []envelope.EnvelopeEntry{{DeviceID: writer.String(), SealedKey: sealed(1)}},
		})
		assert.ErrorIs(t, err, appErrors.ErrNotDeviceOwner)
		assert.Equal(t, appErrors.CodePermissionDenied, appErrors.CodeOf(err))
	})

	t.Run("sad path - device lookup fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDevices := devicemocks.NewMockDeviceRepository(ctrl)
		uc := NewEnvelopeUsecase(mocks.NewMockEnvelopeRepository(ctrl), mockDevices, logger.Logger{}, true)

		mockDevices.EXPECT().GetDeviceKey(gomock.Any(), alice, writer).Return(nil, errors.New("connection reset"))

		err := uc.PutEnvelopes(context.Background(), alice, envelope.PutEnvelopesCommand{
			Scope:          scope,
			WriterDeviceID: writer.String(),
			Entries:        []envelope.EnvelopeEntry{{DeviceID: writer.String(), SealedKey: sealed(1)}},
		})
		assert.Equal(t, appErrors.CodeUnavailable, appErrors.CodeOf(err))
	})

	t.Run("sad path - caller outside the direct message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := NewEnvelopeUsecase(mocks.NewMockEnvelopeRepository(ctrl), devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

		err := uc.PutEnvelopes(context.Background(), uuid.New(), envelope.PutEnvelopesCommand{
			Scope:          scope,
			WriterDeviceID: writer.String(),
			Entries:        []envelope.EnvelopeEntry{{DeviceID: writer.String(), SealedKey: sealed(1)}},
		})
		assert.ErrorIs(t, err, appErrors.ErrNotParticipant)
	})

	t.Run("group scope skips the participant check", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockEnvelopeRepository(ctrl)
		mockDevices := devicemocks.NewMockDeviceRepository(ctrl)
		uc := NewEnvelopeUsecase(mockRepo, mockDevices, logger.Logger{}, true)

		carol := uuid.New()
		mockDevices.EXPECT().GetDeviceKey(gomock.Any(), carol, writer).Return(&devicemodel.DeviceKey{UserID: carol, DeviceID: writer}, nil)
		mockRepo.EXPECT().PutEnvelopes(gomock.Any(), "group:g1", writer, gomock.Any(), true).Return(nil)

		err := uc.PutEnvelopes(context.Background(), carol, envelope.PutEnvelopesCommand{
			Scope:          "group:g1",
			WriterDeviceID: writer.String(),
			Entries:        []envelope.EnvelopeEntry{{DeviceID: writer.String(), SealedKey: sealed(1)}},
		})
		require.NoError(t, err)
	})

	tests := []struct {
		name string
		cmd  envelope.PutEnvelopesCommand
		want error
	}{
		{
			name: "bad scope",
			cmd:  envelope.PutEnvelopesCommand{Scope: "room:1", WriterDeviceID: writer.String()},
			want: appErrors.ErrInvalidScope,
		},
		{
			name: "bad writer",
			cmd:  envelope.PutEnvelopesCommand{Scope: scope, WriterDeviceID: ""},
			want: appErrors.ErrInvalidDeviceID,
		},
		{
			name: "empty batch",
			cmd:  envelope.PutEnvelopesCommand{Scope: scope, WriterDeviceID: writer.String()},
			want: appErrors.ErrEmptyEnvelopeBatch,
		},
		{
			name: "short sealed key",
			cmd: envelope.PutEnvelopesCommand{
				Scope:          scope,
				WriterDeviceID: writer.String(),
				Entries:        []envelope.EnvelopeEntry{{DeviceID: other.String(), SealedKey: []byte("short")}},
			},
			want: appErrors.ErrInvalidSealedKey,
		},
		{
			name: "bad entry device",
			cmd: envelope.PutEnvelopesCommand{
				Scope:          scope,
				WriterDeviceID: writer.String(),
				Entries:        []envelope.EnvelopeEntry{{DeviceID: "nope", SealedKey: sealed(1)}},
			},
			want: appErrors.ErrInvalidDeviceID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			uc := NewEnvelopeUsecase(mocks.NewMockEnvelopeRepository(ctrl), devicemocks.NewMockDeviceRepository(ctrl), logger.Logger{}, true)

			err := uc.PutEnvelopes(context.Background(), alice, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
