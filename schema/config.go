package schema

import (
	"errors"
	"strings"
	"time"
)

// ServiceConfig defines defaults and limits for the core service.
type ServiceConfig struct {
	// StateKey names the durable slot holding the encoded tab list.
	StateKey string
	// SaveDelay is the quiet interval before a debounced flush.
	SaveDelay time.Duration
}

// DefaultStateKey is the durable slot name used when none is configured.
const DefaultStateKey = "savedNotes"

// DefaultSaveDelay is the debounce quiet interval.
const DefaultSaveDelay = time.Second

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	cfg.StateKey = strings.TrimSpace(cfg.StateKey)
	if cfg.StateKey == "" {
		cfg.StateKey = DefaultStateKey
	}
	if cfg.SaveDelay < 0 {
		return ServiceConfig{}, errors.New("save delay must not be negative")
	}
	if cfg.SaveDelay == 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}
	return cfg, nil
}
