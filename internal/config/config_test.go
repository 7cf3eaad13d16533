package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("TRANSPORT", TransportDevice)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "data/wedding.db", cfg.DatabasePath)
	assert.Equal(t, "data/content.yaml", cfg.ContentPath)
	assert.Equal(t, 100*time.Millisecond, cfg.BroadcastDelay)
	assert.False(t, cfg.PostEventMode)
	assert.Equal(t, "en", cfg.BaseLanguage)
}

func TestParseCloudRequiresCredentials(t *testing.T) {
	t.Setenv("TRANSPORT", TransportCloud)
	t.Setenv("WHATSAPP_TOKEN", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParseCloudRequiresAppSecret(t *testing.T) {
	t.Setenv("TRANSPORT", TransportCloud)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "1234")
	t.Setenv("WHATSAPP_APP_SECRET", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHATSAPP_APP_SECRET")

	t.Setenv("WHATSAPP_APP_SECRET", "app-secret")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "app-secret", cfg.AppSecret)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "TRANSPORT=device\nPOST_EVENT_MODE=true\nBROADCAST_DELAY=2s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("POST_EVENT_MODE")
		os.Unsetenv("BROADCAST_DELAY")
	})
	t.Setenv("TRANSPORT", "")
	os.Unsetenv("TRANSPORT")

	cfg, loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.True(t, cfg.PostEventMode)
	assert.Equal(t, 2*time.Second, cfg.BroadcastDelay)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("TRANSPORT", TransportDevice)

	_, loaded, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)
}
