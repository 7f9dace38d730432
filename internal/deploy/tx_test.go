package deploy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/deploy"
)

func TestFileTx_revertRestoresBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.conf")
	prior := []byte("prior content\n")

	require.NoError(t, os.WriteFile(path, prior, 0o644))

	tx, err := deploy.BeginFileTx(path)
	require.NoError(t, err)

	assert.True(t, tx.Existed())

	require.NoError(t, tx.Write([]byte("new content\n"), 0o644))
	require.NoError(t, tx.Revert())

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, prior, got)
}

func TestFileTx_revertRemovesNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.conf")

	tx, err := deploy.BeginFileTx(path)
	require.NoError(t, err)

	assert.False(t, tx.Existed())

	require.NoError(t, tx.Write([]byte("new content\n"), 0o644))
	require.NoError(t, tx.Revert())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileTx_revertWithoutWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.conf")
	prior := []byte("prior content\n")

	require.NoError(t, os.WriteFile(path, prior, 0o644))

	tx, err := deploy.BeginFileTx(path)
	require.NoError(t, err)

	// Nothing was written, revert must not touch the file.
	require.NoError(t, tx.Revert())

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, prior, got)
}

func TestFileTx_doubleWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.conf")

	tx, err := deploy.BeginFileTx(path)
	require.NoError(t, err)

	require.NoError(t, tx.Write([]byte("first\n"), 0o644))

	assert.Error(t, tx.Write([]byte("second\n"), 0o644))
}
