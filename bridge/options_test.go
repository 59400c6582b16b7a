package bridge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optionsYAML = `
defaults:
  base_url: /api
  headers:
    X-Token: [secret]
  max_content_length: 2048
  max_body_length: 1024
  timeout: 1500ms
  disable_decompression: true
server:
  max_header_bytes: 4096
  timeout:
    read_header: 2s
    idle: 1m
`

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte(optionsYAML))
	require.NoError(t, err)

	assert.Equal(t, "/api", opts.Defaults.BaseURL)
	assert.Equal(t, "secret", opts.Defaults.Headers.Get("X-Token"))
	assert.EqualValues(t, 2048, opts.Defaults.MaxContentLength)
	assert.EqualValues(t, 1024, opts.Defaults.MaxBodyLength)
	assert.Equal(t, 1500*time.Millisecond, opts.Defaults.Timeout)
	assert.True(t, opts.Defaults.DisableDecompression)

	assert.Equal(t, 4096, opts.Server.MaxHeaderBytes)
	assert.Equal(t, 2*time.Second, opts.Server.Timeout.ReadHeaderTimeout)
	assert.Equal(t, time.Minute, opts.Server.Timeout.IdleTimeout)
}

func TestParseOptionsEmpty(t *testing.T) {
	opts, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, opts)
}

func TestParseOptionsUnknownField(t *testing.T) {
	_, err := ParseOptions([]byte("defaults:\n  base_uri: /typo\n"))
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(optionsYAML), 0o600))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "/api", opts.Defaults.BaseURL)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
