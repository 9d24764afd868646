package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tilecat.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[api]
token = "secret"
timeoutSeconds = 10

[fetch]
workers = 8

[output]
level = "debug"
`)

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", config.API.Token)
	assert.Equal(t, 10, config.API.TimeoutSeconds)
	assert.Equal(t, 8, config.Fetch.Workers)
	assert.Equal(t, "debug", config.Output.Level)
	// untouched fields keep their defaults
	assert.Equal(t, "https://gateway.api.globalfishingwatch.org", config.API.BaseURL)
	assert.Equal(t, 2, config.Fetch.Retries)
	assert.True(t, config.Output.Terminal)
}

func TestLoad_missingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoad_invalidValues(t *testing.T) {
	path := writeConfig(t, `
[fetch]
workers = 0
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
