package blob

import (
	"context"
	"testing"

	"moswords/config"
	"moswords/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startMinio(t *testing.T) config.Minio {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("minio container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	return config.Minio{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "attachments",
	}
}

func TestMinio_PutGetDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	ctx := context.Background()
	cfg := startMinio(t)

	store, err := NewMinio(ctx, cfg, logger.NewNop())
	require.NoError(t, err)

	// second connect finds the bucket
	_, err = NewMinio(ctx, cfg, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "files/x", []byte("ciphertext")))
	got, err := store.Get(ctx, "files/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), got)

	require.NoError(t, store.Delete(ctx, "files/x"))
	_, err = store.Get(ctx, "files/x")
	assert.ErrorIs(t, err, ErrNotFound)
}
