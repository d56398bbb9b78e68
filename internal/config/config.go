package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ServerURL is the chunk feed websocket url. Empty means offline:
	// terrain is generated locally from Seed.
	ServerURL  string `yaml:"server_url"`
	ViewerName string `yaml:"viewer_name"`
	Seed       int64  `yaml:"seed"`

	// CachePath is the sqlite chunk cache. Empty disables caching.
	CachePath string `yaml:"cache_path"`

	ViewRadiusChunks int     `yaml:"view_radius_chunks"`
	RebuildDistance  float32 `yaml:"rebuild_distance"`

	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
}

type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type CameraConfig struct {
	Speed       float32 `yaml:"speed"`
	Sensitivity float32 `yaml:"sensitivity"`
}

// Load reads path, or returns defaults when path is empty.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("viewer.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("viewer.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ViewerName:       "quanta",
		Seed:             1337,
		ViewRadiusChunks: 2,
		RebuildDistance:  8,
		Window:           WindowConfig{Width: 1280, Height: 720},
		Camera:           CameraConfig{Speed: 12, Sensitivity: 0.003},
	}
}

func (c *Config) Normalize() {
	d := defaults()
	if strings.TrimSpace(c.ViewerName) == "" {
		c.ViewerName = d.ViewerName
	}
	if c.ViewRadiusChunks <= 0 {
		c.ViewRadiusChunks = d.ViewRadiusChunks
	}
	if c.RebuildDistance <= 0 {
		c.RebuildDistance = d.RebuildDistance
	}
	if c.Window.Width <= 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = d.Window.Height
	}
	if c.Camera.Speed <= 0 {
		c.Camera.Speed = d.Camera.Speed
	}
	if c.Camera.Sensitivity <= 0 {
		c.Camera.Sensitivity = d.Camera.Sensitivity
	}
}

func (c *Config) Validate() error {
	if c.ViewRadiusChunks > 8 {
		return fmt.Errorf("view_radius_chunks %d too large (max 8)", c.ViewRadiusChunks)
	}
	if u := strings.TrimSpace(c.ServerURL); u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return fmt.Errorf("server_url must be a ws:// or wss:// url, got %q", c.ServerURL)
	}
	return nil
}
