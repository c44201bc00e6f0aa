package stores

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("STORAGE_PATH", "")
	t.Setenv("LOCK_TIMEOUT", "")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultStoragePath, cfg.StoragePath)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)

	t.Setenv("STORAGE_PATH", "/tmp/docs")
	t.Setenv("LOCK_TIMEOUT", "250ms")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docs", cfg.StoragePath)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)

	t.Setenv("LOCK_TIMEOUT", "soon")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestGetStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, storageType := range []string{"", "filesystem", "memory", "sqlite"} {
		t.Run(storageType, func(t *testing.T) {
			s, err := GetStore(ctx, Config{
				StorageType: storageType,
				StoragePath: filepath.Join(dir, "root-"+storageType),
				LockTimeout: time.Second,
			})
			require.NoError(t, err)
			require.NotNil(t, s)
			if c, ok := s.(io.Closer); ok {
				c.Close()
			}
		})
	}

	_, err := GetStore(ctx, Config{StorageType: "tape"})
	assert.Error(t, err)
	_, err = GetStore(ctx, Config{StorageType: "s3"})
	assert.Error(t, err, "bucket name is required")
}
