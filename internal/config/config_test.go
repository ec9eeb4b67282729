package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
tracker:
  base_url: https://desk.example.com
  token: secret
persist:
  base_url: https://api.example.com
  api_key: key
farm360:
  endpoint: https://360.example.com/graphql
  api_key: key360
app:
  base_url: https://agtasks.example.com
user_email: admin@example.com
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://desk.example.com", cfg.Tracker.BaseURL)
	assert.Equal(t, "https://360.example.com/graphql", cfg.Farm360.Endpoint)
	assert.Equal(t, "admin@example.com", cfg.UserEmail)
	// Defaults apply for unset keys.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	_, err := Load(writeTestConfig(t, "tracker:\n  base_url: https://desk.example.com\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracker.token")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("AGTASKS_USER_EMAIL", "other@example.com")

	cfg, err := Load(writeTestConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", cfg.UserEmail)
}
