package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSeedsDirectoryAndSettings(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"logs", "state", "assets"} {
		if _, err := os.Stat(filepath.Join(dir, EspressoDir, sub)); err != nil {
			t.Fatalf("expected %s directory: %v", sub, err)
		}
	}
	if cfg.Settings.Version != 1 {
		t.Fatalf("seeded settings should be version 1, got %d", cfg.Settings.Version)
	}
	if cfg.Settings.Tools.FFmpeg != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg tool: %q", cfg.Settings.Tools.FFmpeg)
	}
	if cfg.Settings.Voice.APIKeyEnv != "ELEVENLABS_API_KEY" {
		t.Fatalf("unexpected api key env: %q", cfg.Settings.Voice.APIKeyEnv)
	}
}

func TestLoadKeepsExistingSettings(t *testing.T) {
	dir := t.TempDir()
	if err := InitEspressoDir(dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	custom := "version: 1\ntools:\n  ffmpeg: /opt/ffmpeg/bin/ffmpeg\n"
	path := filepath.Join(dir, EspressoDir, "settings.yaml")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Settings.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("existing settings were overwritten: %q", cfg.Settings.Tools.FFmpeg)
	}
	if cfg.Settings.Tools.FFprobe != "ffprobe" {
		t.Fatalf("missing fields should default, got %q", cfg.Settings.Tools.FFprobe)
	}
}
