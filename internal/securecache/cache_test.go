package securecache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caches(t *testing.T) map[string]Cache {
	t.Helper()
	ctx := context.Background()

	lite, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	sealedMem, err := NewSealed(ctx, NewMemory(), []byte("correct horse"))
	require.NoError(t, err)

	return map[string]Cache{
		"memory": NewMemory(),
		"sqlite": lite,
		"sealed": sealedMem,
	}
}

func TestCache_SetGetDelete(t *testing.T) {
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, found, err := c.Get(ctx, "device_identity")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, c.Set(ctx, "device_identity", []byte("v1")))
			require.NoError(t, c.Set(ctx, "device_identity", []byte("v2")))

			got, found, err := c.Get(ctx, "device_identity")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, c.Delete(ctx, "device_identity"))
			_, found, err = c.Get(ctx, "device_identity")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestCache_ConcurrentWriters(t *testing.T) {
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, c.Set(ctx, fmt.Sprintf("conversation_key:channel:%d", i), []byte{byte(i)}))
				}(i)
			}
			wg.Wait()

			for i := 0; i < 16; i++ {
				got, found, err := c.Get(ctx, fmt.Sprintf("conversation_key:channel:%d", i))
				require.NoError(t, err)
				require.True(t, found)
				assert.Equal(t, []byte{byte(i)}, got)
			}
		})
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", []byte("v")))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, found, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)
}

func TestSealed_ValuesAreEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s, err := NewSealed(ctx, inner, []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "k", []byte("secret material")))

	raw, found, err := inner.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, string(raw), "secret material")
}

func TestSealed_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	_, err := NewSealed(ctx, inner, []byte("pw"))
	require.NoError(t, err)

	_, err = NewSealed(ctx, inner, []byte("other"))
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	again, err := NewSealed(ctx, inner, []byte("pw"))
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestSealed_TamperedValue(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s, err := NewSealed(ctx, inner, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	raw, _, _ := inner.Get(ctx, "k")
	raw[len(raw)-1] ^= 1
	require.NoError(t, inner.Set(ctx, "k", raw))

	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSealed_ValueBoundToName(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s, err := NewSealed(ctx, inner, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "conversation_key:group:a", []byte("key a")))
	require.NoError(t, s.Set(ctx, "conversation_key:group:b", []byte("key b")))

	raw, found, err := inner.Get(ctx, "conversation_key:group:a")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, inner.Set(ctx, "conversation_key:group:b", raw))

	_, _, err = s.Get(ctx, "conversation_key:group:b")
	assert.ErrorIs(t, err, ErrCorrupt)

	got, found, err := s.Get(ctx, "conversation_key:group:a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("key a"), got)
}
