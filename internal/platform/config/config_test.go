package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir(), "does-not-exist")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "uat", cfg.GatewayEnv)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 3*time.Second, cfg.IPLookupTimeout())
	assert.Equal(t, "/api/v1/vkyc/appointments/:id/meeting", cfg.EndpointCreateMeeting)
	assert.Empty(t, cfg.GatewayToken)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("GATEWAY_TIMEOUT_MS: 5000\nENDPOINT_SUBMIT: /custom/submit\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bridge.yaml"), yaml, 0o600))

	t.Setenv("APP_GATEWAY_TOKEN", "env-token")
	t.Setenv("APP_GATEWAY_ENV", "production")

	cfg, err := Load(dir, "bridge")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, "/custom/submit", cfg.EndpointSubmit)
	assert.Equal(t, "env-token", cfg.GatewayToken)
	assert.Equal(t, "production", cfg.GatewayEnv)
}
