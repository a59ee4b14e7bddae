// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML files, environment overrides and validation
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digimuse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Title != "cmi" || cfg.CallbackHz != 60 || cfg.MaxTracks != FixedTracks {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Volume.Music != 127 || cfg.Control.Port != 8928 || !cfg.Control.MDNS {
		t.Errorf("unexpected nested defaults %+v %+v", cfg.Volume, cfg.Control)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
game_dir: /games/comi
title: dig
disk: 2
volume:
  music: 90
control:
  port: 9000
  mdns: false
log_format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.GameDir != "/games/comi" || cfg.Title != "dig" || cfg.Disk != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Volume.Music != 90 || cfg.Volume.Voice != 127 {
		t.Errorf("expected music 90 and default voice, got %+v", cfg.Volume)
	}
	if cfg.Control.Port != 9000 || cfg.Control.MDNS {
		t.Errorf("unexpected control config %+v", cfg.Control)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %s", cfg.LogFormat)
	}
}

func TestLoadEnvironment(t *testing.T) {
	path := writeConfig(t, "title: dig\n")
	t.Setenv("DIGIMUSE_TITLE", "cmi")
	t.Setenv("DIGIMUSE_CALLBACK_HZ", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Title != "cmi" || cfg.CallbackHz != 30 {
		t.Errorf("expected environment overrides, got title %s hz %d", cfg.Title, cfg.CallbackHz)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"track count", "max_tracks: 16\n"},
		{"callback rate", "callback_hz: 0\n"},
		{"sample rate", "sample_rate: 100\n"},
		{"volume", "volume:\n  sfx: 200\n"},
		{"log format", "log_format: xml\n"},
		{"disk", "disk: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}
