package appconfig

import (
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	"pkt.systems/notetabs/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int          `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string       `mapstructure:"state_dir" yaml:"state_dir"`
	SettingsFile  string       `mapstructure:"settings_file" yaml:"settings_file"`
	State         StateConfig  `mapstructure:"state" yaml:"state"`
	HTTP          HTTPConfig   `mapstructure:"http" yaml:"http"`
	Export        ExportConfig `mapstructure:"export" yaml:"export"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// StateConfig selects the durable slot and the debounce interval.
type StateConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Key         string `mapstructure:"key" yaml:"key"`
	SaveDelayMS int    `mapstructure:"save_delay_ms" yaml:"save_delay_ms"`
}

// HTTPConfig configures the loopback API.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// ExportConfig configures plain-text exports.
type ExportConfig struct {
	DefaultPath string `mapstructure:"default_path" yaml:"default_path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".notetabs", "state"),
		SettingsFile:  filepath.Join(home, ".notetabs", "settings.yaml"),
		State: StateConfig{
			Backend:     "file",
			Key:         schema.DefaultStateKey,
			SaveDelayMS: int(schema.DefaultSaveDelay / time.Millisecond),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:27481",
		},
		Export: ExportConfig{
			DefaultPath: "~/notes-export.txt",
		},
	}, nil
}

// ServiceConfig maps the state section onto the core service config.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		StateKey:  c.State.Key,
		SaveDelay: time.Duration(c.State.SaveDelayMS) * time.Millisecond,
	}
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".notetabs", "config.yaml"), nil
}
