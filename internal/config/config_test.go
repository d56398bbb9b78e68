package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ViewRadiusChunks != 2 || cfg.Window.Width != 1280 || cfg.Camera.Speed != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "viewer.yaml")
	data := `
server_url: ws://localhost:8080/v1/chunks
viewer_name: probe
seed: 404
view_radius_chunks: 3
window:
  width: 640
  height: 360
`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "ws://localhost:8080/v1/chunks" || cfg.Seed != 404 || cfg.ViewRadiusChunks != 3 {
		t.Fatalf("parsed: %+v", cfg)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 360 {
		t.Fatalf("window: %+v", cfg.Window)
	}
	// Unset fields fall back to defaults.
	if cfg.Camera.Speed != 12 {
		t.Fatalf("camera default lost: %+v", cfg.Camera)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	p := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(p, []byte("server_url: http://nope\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected url validation error")
	}
}

func TestValidateRejectsHugeRadius(t *testing.T) {
	p := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(p, []byte("view_radius_chunks: 99\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected radius validation error")
	}
}
