package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	cfg, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "fintrack.db", cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 0.75, cfg.Dedup.Threshold)
	assert.Equal(t, 0.85, cfg.Dedup.AutoConsolidateFloor)
	assert.Equal(t, 5, cfg.Dedup.ReviewMarginChars)
	assert.Equal(t, "shortest", cfg.Dedup.CanonicalMode)
	assert.Equal(t, "merchant-aliases.yaml", cfg.Dedup.AliasFile)
}

func TestInitializeConfig_EnvOverride(t *testing.T) {
	t.Setenv("FINTRACK_DEDUP_THRESHOLD", "0.8")
	t.Setenv("FINTRACK_DEDUP_CANONICAL_MODE", "history")

	cfg, err := InitializeConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Dedup.Threshold)
	assert.Equal(t, "history", cfg.Dedup.CanonicalMode)
}

func TestInitializeConfig_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold out of band", "FINTRACK_DEDUP_THRESHOLD", "0.3"},
		{"bad canonical mode", "FINTRACK_DEDUP_CANONICAL_MODE", "longest"},
		{"bad log level", "FINTRACK_LOG_LEVEL", "chatty"},
		{"bad log format", "FINTRACK_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := InitializeConfig()
			assert.Error(t, err)
		})
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	logger := ConfigureLogging()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestConfigureLogging_BadLevelFallsBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("LOG_FORMAT", "text")

	logger := ConfigureLogging()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
