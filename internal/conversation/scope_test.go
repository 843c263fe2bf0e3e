package conversation

import (
	"errors"
	"testing"

	apperrors "moswords/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectMessage_Symmetric(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, b := uuid.NewString(), uuid.NewString()
		assert.Equal(t, DirectMessage(a, b), DirectMessage(b, a))
		assert.Equal(t, DirectMessageID(a, b), DirectMessageID(b, a))
	}

	s := DirectMessage("bob", "alice")
	assert.Equal(t, "dm:alice:bob", s.String())
}

func TestParticipants(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, DirectMessage("bob", "alice").Participants())
	assert.Nil(t, Group("g1").Participants())
	assert.Nil(t, Channel("general").Participants())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Scope
		wantErr bool
	}{
		{name: "channel", raw: "channel:general", want: Channel("general")},
		{name: "group", raw: "group:3f1c", want: Group("3f1c")},
		{name: "dm", raw: "dm:alice:bob", want: DirectMessage("alice", "bob")},
		{name: "dm unsorted", raw: "dm:bob:alice", wantErr: true},
		{name: "dm single", raw: "dm:alice", wantErr: true},
		{name: "unknown kind", raw: "thread:1", wantErr: true},
		{name: "no separator", raw: "general", wantErr: true},
		{name: "empty id", raw: "group:", wantErr: true},
		{name: "whitespace", raw: "group:a b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidScope))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
		})
	}
}
