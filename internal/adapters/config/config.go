package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// AppDir is the directory under the user config dir owned by socos.
const AppDir = "socos"

// Config holds CLI configuration from config.toml.
type Config struct {
	Broker    string            `toml:"broker"`
	Identity  string            `toml:"identity"`
	Username  string            `toml:"username"`
	Password  string            `toml:"password"`
	TLSCA     string            `toml:"tls_ca"`
	TLSCert   string            `toml:"tls_cert"`
	TLSKey    string            `toml:"tls_key"`
	TopicBase string            `toml:"topic_base"`
	Timeout   string            `toml:"timeout"`
	IndexPath string            `toml:"index_path"`
	Color     *bool             `toml:"color"`
	LogLevel  string            `toml:"log_level"`
	LogFormat string            `toml:"log_format"`
	Aliases   map[string]string `toml:"aliases"`
}

// TimeoutDuration parses Timeout, returning def when unset.
func (c Config) TimeoutDuration(def time.Duration) (time.Duration, error) {
	if c.Timeout == "" {
		return def, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	return d, nil
}

// Load loads the config file at path, or config.toml in the socos config
// directory when path is empty. A missing file returns an empty config.
func Load(path string) (Config, error) {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return Config{}, err
		}
		path = filepath.Join(dir, "config.toml")
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{Aliases: map[string]string{}}, nil
		}
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	return cfg, nil
}

// Dir returns the socos config directory.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDir), nil
}
