package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "key-A,key-B")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "key-A,key-B", cfg.Credentials.Raw)
	assert.Equal(t, "env", cfg.Credentials.Source)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "key", cfg.Gemini.CredentialParam)
	assert.Equal(t, 2, cfg.Dispatch.MaxRetriesPerCredential)
	assert.Equal(t, 1500*time.Millisecond, cfg.Dispatch.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.MaxDelay)
	assert.Equal(t, 120*time.Second, cfg.Dispatch.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "gateway.db", cfg.Credentials.DBPath)
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
gemini:
  model: gemini-2.0-flash
dispatch:
  max_retries_per_credential: 4
  base_delay: 250ms
credentials:
  raw: "file-key"
prompt:
  default_system: "Answer briefly."
`), 0o644))
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")
	t.Setenv("GATEWAY_DISPATCH_MAX_DELAY", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 4, cfg.Dispatch.MaxRetriesPerCredential)
	assert.Equal(t, 250*time.Millisecond, cfg.Dispatch.BaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.MaxDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "file-key", cfg.Credentials.Raw)
	assert.Equal(t, "Answer briefly.", cfg.Prompt.DefaultSystem)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"GATEWAY_LOG_LEVEL":                           "loud",
		"GATEWAY_CREDENTIALS_SOURCE":                  "vault",
		"GATEWAY_CREDENTIALS_ENCRYPTION_KEY":          "short",
		"GATEWAY_DISPATCH_MAX_RETRIES_PER_CREDENTIAL": "-1",
		"GATEWAY_DISPATCH_MAX_DELAY":                  "1ms",
	}

	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}
