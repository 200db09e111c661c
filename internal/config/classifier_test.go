package config

import (
	"DrowsyGuard/pkg/ear"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonitoringConfigDefaults(t *testing.T) {
	t.Setenv("EAR_THRESHOLD", "")
	t.Setenv("EAR_CONSEC_FRAMES", "")
	t.Setenv("STATE_TTL", "")

	cfg, err := NewMonitoringConfig()
	require.NoError(t, err)
	assert.Equal(t, ear.DefaultConfig(), cfg.Classifier)
	assert.Equal(t, ear.IBUG68, cfg.Convention)
	assert.Equal(t, 30*time.Minute, cfg.StateTTL)
}

func TestNewMonitoringConfigFromEnv(t *testing.T) {
	t.Setenv("EAR_THRESHOLD", "0.21")
	t.Setenv("EAR_CONSEC_FRAMES", "48")
	t.Setenv("STATE_TTL", "5m")

	cfg, err := NewMonitoringConfig()
	require.NoError(t, err)
	assert.Equal(t, ear.Config{Threshold: 0.21, FrameLimit: 48}, cfg.Classifier)
	assert.Equal(t, 5*time.Minute, cfg.StateTTL)
}

func TestNewMonitoringConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"threshold not a number", "EAR_THRESHOLD", "low"},
		{"negative threshold", "EAR_THRESHOLD", "-0.2"},
		{"threshold of one", "EAR_THRESHOLD", "1"},
		{"zero frames", "EAR_CONSEC_FRAMES", "0"},
		{"bad ttl", "STATE_TTL", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EAR_THRESHOLD", "")
			t.Setenv("EAR_CONSEC_FRAMES", "")
			t.Setenv("STATE_TTL", "")
			t.Setenv(tt.key, tt.value)

			_, err := NewMonitoringConfig()
			assert.Error(t, err)
		})
	}
}
