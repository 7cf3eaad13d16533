package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log := New(Options{Level: "debug", File: path, MaxSizeMB: 1})

	componentLog := Component(log, "test")
	componentLog.Info().Str("phone", "919876543210").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestNewDefaultsLevel(t *testing.T) {
	log := New(Options{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
