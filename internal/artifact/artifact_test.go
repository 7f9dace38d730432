package artifact_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/artifact"
)

func TestReleaseFilename(t *testing.T) {
	testCases := []struct {
		name   string
		osName string
		arch   string
		want   string
	}{{
		name:   "linux_amd64",
		osName: "linux",
		arch:   "amd64",
		want:   "hysteria-linux-amd64",
	}, {
		name:   "linux_x86_64",
		osName: "linux",
		arch:   "x86_64",
		want:   "hysteria-linux-amd64",
	}, {
		name:   "darwin_aarch64",
		osName: "darwin",
		arch:   "aarch64",
		want:   "hysteria-darwin-arm64",
	}, {
		name:   "windows_386",
		osName: "windows",
		arch:   "i686",
		want:   "hysteria-windows-386.exe",
	}, {
		name:   "unknown_normalized",
		osName: "plan9",
		arch:   "mips",
		want:   "hysteria-linux-amd64",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, artifact.ReleaseFilename(tc.osName, tc.arch))
		})
	}
}

func TestDownloader_Acquire(t *testing.T) {
	payload := bytes.Repeat([]byte{0x7f}, artifact.MinBinarySize+1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/hysteria-linux-amd64", r.URL.Path)

		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d := artifact.NewDownloader(&artifact.DownloaderConfig{
		BaseURL: srv.URL,
		Dir:     dir,
	})

	path, err := d.Acquire("linux", "amd64")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "hysteria"), path)

	fi, err := os.Stat(path)
	require.NoError(t, err)

	assert.EqualValues(t, len(payload), fi.Size())
	assert.Equal(t, os.FileMode(0o755), fi.Mode().Perm())
}

func TestDownloader_Acquire_reusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hysteria")

	payload := bytes.Repeat([]byte{0x7f}, artifact.MinBinarySize+1)
	require.NoError(t, os.WriteFile(path, payload, 0o755))

	// No server: any network access would fail the acquire.
	d := artifact.NewDownloader(&artifact.DownloaderConfig{
		BaseURL: "http://127.0.0.1:1",
		Dir:     dir,
	})

	got, err := d.Acquire("linux", "amd64")
	require.NoError(t, err)

	assert.Equal(t, path, got)
}

func TestDownloader_Acquire_rejectsTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not a binary"))
	}))
	t.Cleanup(srv.Close)

	d := artifact.NewDownloader(&artifact.DownloaderConfig{
		BaseURL: srv.URL,
		Dir:     t.TempDir(),
	})

	_, err := d.Acquire("linux", "amd64")
	require.Error(t, err)
}
