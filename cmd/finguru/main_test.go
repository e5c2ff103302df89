package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLogLevelFlag(t *testing.T) {
	t.Setenv("FINGURU_LOG_LEVEL", "warn")

	cfg, err := loadConfig("", "debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	// without the flag the environment still applies
	cfg, err = loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}
