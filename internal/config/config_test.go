package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file should exist: %v", err)
	}
	if cfg.Render.Particles != 300 {
		t.Errorf("Render.Particles = %d, want 300", cfg.Render.Particles)
	}
	if cfg.Animation.CandleLerp != 0.04 {
		t.Errorf("Animation.CandleLerp = %v, want 0.04", cfg.Animation.CandleLerp)
	}
}

func TestLoad_ReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
camera:
  device_id: 2
  width: 1280
  height: -1
server:
  addr: "127.0.0.1:9000"
animation:
  particle_lerp: 0.1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Camera.DeviceID != 2 {
		t.Errorf("Camera.DeviceID = %d, want 2", cfg.Camera.DeviceID)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 480 {
		t.Errorf("Camera size = %dx%d, want 1280x480", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Animation.ParticleLerp != 0.1 {
		t.Errorf("Animation.ParticleLerp = %v, want 0.1", cfg.Animation.ParticleLerp)
	}
	// untouched sections keep defaults
	if cfg.Render.FPS != 60 {
		t.Errorf("Render.FPS = %d, want 60", cfg.Render.FPS)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("camera: [unterminated"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoad_NormalizesSmoothingFactors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero snaps", "0"},
		{"one snaps", "1"},
		{"negative", "-0.3"},
		{"above one", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			content := "animation:\n  photo_lerp: " + tt.value + "\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("write config: %v", err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Animation.PhotoLerp != 0.05 {
				t.Errorf("PhotoLerp = %v, want default 0.05", cfg.Animation.PhotoLerp)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := t.TempDir()

	t.Setenv(EnvServerAddr, ":7070")
	t.Setenv(EnvDataDir, dataDir)
	t.Setenv(EnvCameraDevice, "3")
	t.Setenv(EnvTray, "false")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Storage.DataDir != dataDir {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, dataDir)
	}
	if cfg.Camera.DeviceID != 3 {
		t.Errorf("Camera.DeviceID = %d, want 3", cfg.Camera.DeviceID)
	}
	if cfg.Tray.Enabled {
		t.Error("Tray.Enabled should be false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if got, want := cfg.DatabasePath(), filepath.Join(dataDir, "cakewish.db"); got != want {
		t.Errorf("DatabasePath() = %q, want %q", got, want)
	}
}
