package zoned

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zoned.toml")
	data := []byte(`
[server]
topic_base = "home/v1"
log_level = "debug"

[embedded_mqtt]
enabled = true
listen = "127.0.0.1:1999"
allow_anonymous = true

[library]
artists = 3
saved_playlists = ["Sunday"]

[[zones]]
address = "10.0.0.1"
name = "Lounge"

[[zones]]
address = "10.0.0.2"
name = "Kitchen"
coordinator = "10.0.0.1"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Server.Broker != "mqtt://127.0.0.1:1999" {
		t.Fatalf("expected embedded broker url, got %q", cfg.Server.Broker)
	}
	if cfg.Server.TopicBase != "home/v1" || cfg.Server.Identity != "zoned" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if len(cfg.Zones) != 2 || cfg.Zones[1].Coordinator != "10.0.0.1" {
		t.Fatalf("unexpected zones %+v", cfg.Zones)
	}
	shape := cfg.Library.Shape()
	if shape.Artists != 3 || shape.TracksPerAlbum != 10 || len(shape.SavedPlaylists) != 1 {
		t.Fatalf("unexpected shape %+v", shape)
	}
}

func TestNormalizeRejectsBadZones(t *testing.T) {
	cases := map[string]Config{
		"no broker":   {},
		"blank":       {Server: ServerConfig{Broker: "mqtt://x"}, Zones: []ZoneEntry{{Name: "x"}}},
		"duplicate":   {Server: ServerConfig{Broker: "mqtt://x"}, Zones: []ZoneEntry{{Address: "a"}, {Address: "a"}}},
		"coordinator": {Server: ServerConfig{Broker: "mqtt://x"}, Zones: []ZoneEntry{{Address: "a", Coordinator: "b"}}},
	}
	for name, cfg := range cases {
		if err := cfg.Normalize(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNormalizeDefaultsOneZone(t *testing.T) {
	cfg := Config{Server: ServerConfig{Broker: "mqtt://x"}}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(cfg.Zones) != 1 {
		t.Fatalf("expected default zone, got %+v", cfg.Zones)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("default path: %v", err)
	}
	if path != "/tmp/xdg/socos/zoned.toml" {
		t.Fatalf("unexpected path %q", path)
	}
}
