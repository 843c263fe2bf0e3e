package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	data := []byte{1, 2, 3}
	require.NoError(t, m.Put(ctx, "files/a", data))
	data[0] = 9

	got, err := m.Get(ctx, "files/a")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	require.NoError(t, m.Delete(ctx, "files/a"))
	_, err = m.Get(ctx, "files/a")
	assert.ErrorIs(t, err, ErrNotFound)
}
