package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/models")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("MAX_TRAINING_LOGS", "42")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "postgres://u:p@db:5432/models", c.DatabaseDSN)
	assert.Equal(t, 250*time.Millisecond, c.PollInterval)
	assert.Equal(t, 42, c.MaxTrainingLogs)
	assert.Equal(t, "training-images", c.S3Bucket)
}

func TestParseEnv_InvalidValuePanics(t *testing.T) {
	t.Setenv("TRAINING_STEPS", "many")

	var c Config
	require.Panics(t, func() { parseEnv(&c) })
}
