package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var validBackends = map[string]bool{
	"file":   true,
	"diskv":  true,
	"bbolt":  true,
	"memory": true,
}

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("settings_file", cfg.SettingsFile)
	v.SetDefault("state.backend", cfg.State.Backend)
	v.SetDefault("state.key", cfg.State.Key)
	v.SetDefault("state.save_delay_ms", cfg.State.SaveDelayMS)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("export.default_path", cfg.Export.DefaultPath)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		// The version must come from the file itself, not the defaults.
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := expandConfigPaths(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	backend := strings.TrimSpace(cfg.State.Backend)
	if !validBackends[backend] {
		return fmt.Errorf("unsupported state.backend %q", cfg.State.Backend)
	}
	if backend != "memory" && strings.TrimSpace(cfg.StateDir) == "" {
		return fmt.Errorf("state_dir is required for state.backend %q", backend)
	}
	if cfg.State.SaveDelayMS < 0 {
		return fmt.Errorf("state.save_delay_ms must not be negative")
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	return nil
}

func expandConfigPaths(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var err error
	if cfg.StateDir, err = expandPath(cfg.StateDir); err != nil {
		return fmt.Errorf("state_dir: %w", err)
	}
	if cfg.SettingsFile, err = expandPath(cfg.SettingsFile); err != nil {
		return fmt.Errorf("settings_file: %w", err)
	}
	if cfg.Export.DefaultPath, err = expandPath(cfg.Export.DefaultPath); err != nil {
		return fmt.Errorf("export.default_path: %w", err)
	}
	return nil
}

// expandPath expands environment variables and a leading "~".
func expandPath(value string) (string, error) {
	return homedir.Expand(expandEnv(value))
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
