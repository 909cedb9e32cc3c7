// Package config loads cakewish settings from a YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CameraConfig controls webcam capture.
type CameraConfig struct {
	DeviceID        int     `yaml:"device_id"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleFPS         int     `yaml:"idle_fps"`
	IdleTimeoutMs   int     `yaml:"idle_timeout_ms"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// RecognizerConfig controls the gesture recognizer service.
type RecognizerConfig struct {
	Script   string `yaml:"script"`
	Python   string `yaml:"python"`
	Model    string `yaml:"model"`
	NumHands int    `yaml:"num_hands"`
}

// RenderConfig controls the animation tick and scene population.
type RenderConfig struct {
	FPS       int   `yaml:"fps"`
	Particles int   `yaml:"particles"`
	Frosting  int   `yaml:"frosting"`
	Seed      int64 `yaml:"seed"`

	// FrostingPositions streams every frosting particle position in each
	// frame instead of only the mix and time.
	FrostingPositions bool `yaml:"frosting_positions"`
}

// AnimationConfig holds per-entity smoothing factors and rates.
type AnimationConfig struct {
	ParticleLerp    float64 `yaml:"particle_lerp"`
	FrostingLerp    float64 `yaml:"frosting_lerp"`
	CandleLerp      float64 `yaml:"candle_lerp"`
	PhotoLerp       float64 `yaml:"photo_lerp"`
	AutoRotateSpeed float64 `yaml:"auto_rotate_speed"`
}

// ServerConfig controls the HTTP presentation boundary.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	StaticDir    string `yaml:"static_dir"`
	BroadcastFPS int    `yaml:"broadcast_fps"`
}

// StorageConfig locates persistent data.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// HooksConfig controls state-enter plugins.
type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// LoggingConfig mirrors log.Options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// TrayConfig toggles the system tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full application configuration.
type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Render     RenderConfig     `yaml:"render"`
	Animation  AnimationConfig  `yaml:"animation"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Hooks      HooksConfig      `yaml:"hooks"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tray       TrayConfig       `yaml:"tray"`
}

// Environment variables that override file values.
const (
	EnvCameraDevice = "CAKEWISH_CAMERA_DEVICE"
	EnvServerAddr   = "CAKEWISH_ADDR"
	EnvStaticDir    = "CAKEWISH_STATIC_DIR"
	EnvDataDir      = "CAKEWISH_DATA_DIR"
	EnvHooksDir     = "CAKEWISH_HOOKS_DIR"
	EnvLogLevel     = "CAKEWISH_LOG_LEVEL"
	EnvLogFormat    = "CAKEWISH_LOG_FORMAT"
	EnvLogFile      = "CAKEWISH_LOG_FILE"
	EnvTray         = "CAKEWISH_TRAY"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	dataDir := ".cakewish"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".cakewish")
	}

	return Config{
		Camera: CameraConfig{
			DeviceID:        0,
			Width:           640,
			Height:          480,
			ActiveFPS:       30,
			IdleFPS:         10,
			IdleTimeoutMs:   2000,
			MotionThreshold: 1.0,
		},
		Recognizer: RecognizerConfig{NumHands: 1},
		Render: RenderConfig{
			FPS:       60,
			Particles: 300,
			Frosting:  3500,
		},
		Animation: AnimationConfig{
			ParticleLerp:    0.05,
			FrostingLerp:    0.05,
			CandleLerp:      0.04,
			PhotoLerp:       0.05,
			AutoRotateSpeed: 0.05,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			BroadcastFPS: 15,
		},
		Storage: StorageConfig{DataDir: dataDir},
		Hooks: HooksConfig{
			Dir:       filepath.Join(dataDir, "plugins"),
			TimeoutMs: 5000,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Tray:    TrayConfig{Enabled: true},
	}
}

// DefaultPath returns ~/.cakewish/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cakewish", "config.yaml"), nil
}

// Load reads the config at path. A missing file is created with defaults.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvCameraDevice); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Camera.DeviceID = n
		}
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv(EnvHooksDir); v != "" {
		cfg.Hooks.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv(EnvTray); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Tray.Enabled = b
		}
	}
}

// normalize replaces out-of-range values with defaults.
// Smoothing factors must stay in (0, 1) so interpolation never snaps.
func (c *Config) normalize() {
	d := Defaults()

	fixLerp := func(v *float64, def float64) {
		if *v <= 0 || *v >= 1 {
			*v = def
		}
	}
	fixLerp(&c.Animation.ParticleLerp, d.Animation.ParticleLerp)
	fixLerp(&c.Animation.FrostingLerp, d.Animation.FrostingLerp)
	fixLerp(&c.Animation.CandleLerp, d.Animation.CandleLerp)
	fixLerp(&c.Animation.PhotoLerp, d.Animation.PhotoLerp)

	if c.Animation.AutoRotateSpeed < 0 {
		c.Animation.AutoRotateSpeed = d.Animation.AutoRotateSpeed
	}

	fixPositive := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fixPositive(&c.Camera.Width, d.Camera.Width)
	fixPositive(&c.Camera.Height, d.Camera.Height)
	fixPositive(&c.Camera.ActiveFPS, d.Camera.ActiveFPS)
	fixPositive(&c.Camera.IdleFPS, d.Camera.IdleFPS)
	fixPositive(&c.Camera.IdleTimeoutMs, d.Camera.IdleTimeoutMs)
	fixPositive(&c.Recognizer.NumHands, d.Recognizer.NumHands)
	fixPositive(&c.Render.FPS, d.Render.FPS)
	fixPositive(&c.Render.Particles, d.Render.Particles)
	fixPositive(&c.Render.Frosting, d.Render.Frosting)
	fixPositive(&c.Server.BroadcastFPS, d.Server.BroadcastFPS)
	fixPositive(&c.Hooks.TimeoutMs, d.Hooks.TimeoutMs)

	if c.Camera.MotionThreshold <= 0 {
		c.Camera.MotionThreshold = d.Camera.MotionThreshold
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = d.Storage.DataDir
	}
	if c.Hooks.Dir == "" {
		c.Hooks.Dir = filepath.Join(c.Storage.DataDir, "plugins")
	}
}

// DatabasePath returns the SQLite file inside the data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.Storage.DataDir, "cakewish.db")
}

// PhotoDir returns the directory holding uploaded photos.
func (c Config) PhotoDir() string {
	return filepath.Join(c.Storage.DataDir, "photos")
}
