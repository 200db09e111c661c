package config

import (
	monitoringService "DrowsyGuard/internal/api/monitoring/service"
	"DrowsyGuard/pkg/ear"
	"fmt"
	"os"
	"strconv"
	"time"
)

// NewMonitoringConfig reads classifier tuning from the environment:
// EAR_THRESHOLD, EAR_CONSEC_FRAMES, and STATE_TTL (a Go duration).
func NewMonitoringConfig() (*monitoringService.MonitoringConfig, error) {
	cfg := monitoringService.DefaultMonitoringConfig()

	if v := os.Getenv("EAR_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("EAR_THRESHOLD: %w", err)
		}
		cfg.Classifier.Threshold = threshold
	}

	if v := os.Getenv("EAR_CONSEC_FRAMES"); v != "" {
		frames, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("EAR_CONSEC_FRAMES: %w", err)
		}
		cfg.Classifier.FrameLimit = frames
	}

	if err := cfg.Classifier.Validate(); err != nil {
		return nil, err
	}

	if v := os.Getenv("STATE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("STATE_TTL: invalid duration %q", v)
		}
		cfg.StateTTL = ttl
	}

	cfg.Convention = ear.IBUG68

	return cfg, nil
}
