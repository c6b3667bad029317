package zoned

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mikey-austin/socos/internal/adapters/mqttbroker"
	"github.com/mikey-austin/socos/internal/zonesim"
	"github.com/mikey-austin/socos/pkg/zone"
)

// Config is the top-level configuration for zoned.
type Config struct {
	Server       ServerConfig       `toml:"server"`
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
	Library      LibraryConfig      `toml:"library"`
	Zones        []ZoneEntry        `toml:"zones"`
}

// ServerConfig defines bus connection and logging settings.
type ServerConfig struct {
	Broker    string     `toml:"broker"`
	Identity  string     `toml:"identity"`
	TopicBase string     `toml:"topic_base"`
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	TLS       TLSConfig  `toml:"tls"`
	Auth      AuthConfig `toml:"auth"`
}

// TLSConfig holds TLS paths for MQTT.
type TLSConfig struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// AuthConfig holds MQTT auth credentials.
type AuthConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// EmbeddedMQTTConfig configures the in-process broker.
type EmbeddedMQTTConfig struct {
	Enabled        bool   `toml:"enabled"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
}

// Broker converts the section into broker settings.
func (c EmbeddedMQTTConfig) Broker() mqttbroker.Config {
	return mqttbroker.Config{
		Listen:         c.Listen,
		AllowAnonymous: c.AllowAnonymous,
		Username:       c.Username,
		Password:       c.Password,
		TLSCA:          c.TLSCA,
		TLSCert:        c.TLSCert,
		TLSKey:         c.TLSKey,
	}
}

// LibraryConfig sizes the generated music library shared by all zones.
type LibraryConfig struct {
	Artists         int      `toml:"artists"`
	AlbumsPerArtist int      `toml:"albums_per_artist"`
	TracksPerAlbum  int      `toml:"tracks_per_album"`
	Playlists       int      `toml:"playlists"`
	SavedPlaylists  []string `toml:"saved_playlists"`
}

// Shape returns the library shape with defaults applied.
func (c LibraryConfig) Shape() zonesim.LibraryShape {
	shape := zonesim.LibraryShape{
		Artists:         c.Artists,
		AlbumsPerArtist: c.AlbumsPerArtist,
		TracksPerAlbum:  c.TracksPerAlbum,
		Playlists:       c.Playlists,
		SavedPlaylists:  c.SavedPlaylists,
	}
	if shape.Artists == 0 {
		shape.Artists = 20
	}
	if shape.AlbumsPerArtist == 0 {
		shape.AlbumsPerArtist = 3
	}
	if shape.TracksPerAlbum == 0 {
		shape.TracksPerAlbum = 10
	}
	if shape.Playlists == 0 {
		shape.Playlists = 4
	}
	if shape.SavedPlaylists == nil {
		shape.SavedPlaylists = []string{"Morning", "Dinner Party"}
	}
	return shape
}

// ZoneEntry describes one simulated zone.
type ZoneEntry struct {
	Address     string `toml:"address"`
	Name        string `toml:"name"`
	Model       string `toml:"model"`
	Coordinator string `toml:"coordinator"`
	Volume      int    `toml:"volume"`
}

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "socos", "zoned.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "socos", "zoned.toml"), nil
}

// Normalize fills defaults and validates zones.
func (c *Config) Normalize() error {
	if c.Server.TopicBase == "" {
		c.Server.TopicBase = zone.BaseTopic
	}
	if c.Server.Identity == "" {
		c.Server.Identity = "zoned"
	}
	if c.Server.Broker == "" && c.EmbeddedMQTT.Enabled {
		c.Server.Broker = c.EmbeddedMQTT.Broker().URL()
	}
	if c.Server.Broker == "" {
		return errors.New("broker is required")
	}
	if len(c.Zones) == 0 {
		c.Zones = []ZoneEntry{{Address: "127.0.0.10", Name: "Living Room"}}
	}
	seen := map[string]bool{}
	for i, z := range c.Zones {
		addr := strings.TrimSpace(z.Address)
		if addr == "" {
			return fmt.Errorf("zone %d: address required", i+1)
		}
		if seen[addr] {
			return fmt.Errorf("zone %s: duplicate address", addr)
		}
		seen[addr] = true
	}
	for _, z := range c.Zones {
		if z.Coordinator != "" && !seen[z.Coordinator] {
			return fmt.Errorf("zone %s: unknown coordinator %s", z.Address, z.Coordinator)
		}
	}
	return nil
}
