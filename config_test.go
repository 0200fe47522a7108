package bgthrust

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConf(t *testing.T, content string) string {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	s, err := LoadSettings("")
	if err != nil {
		t.Fatal(err)
	}
	if s != DefaultSettings() {
		t.Fatalf("got %s", s)
	}
	// A directory without conf.toml is fine too.
	if s, err = LoadSettings(t.TempDir()); err != nil || s != DefaultSettings() {
		t.Fatalf("got %s %v", s, err)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := writeConf(t, `
[thrust]
mass_epsilon = 1e-3
rotation_threshold = 45.0

[maneuver]
completion_tolerance = 0.1

[resources]
unloaded = false
`)
	exp := DefaultSettings()
	exp.MassEpsilon = 1e-3
	exp.RotationThreshold = 45
	exp.CompletionTolerance = 0.1
	exp.UnloadedResourceProcessing = false
	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatal(err)
	}
	if s != exp {
		t.Fatalf("got %s instead of %s", s, exp)
	}
	t.Setenv(ConfigEnv, dir)
	if s, err = LoadSettings(""); err != nil || s != exp {
		t.Fatalf("$%s ignored: %s %v", ConfigEnv, s, err)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	dir := writeConf(t, "[maneuver]\ncompletion_tolerance = -1.0\n")
	if _, err := LoadSettings(dir); !errors.Is(err, ErrMalformedValue) {
		t.Fatalf("unexpected error %v", err)
	}
	dir = writeConf(t, "[thrust\nmass_epsilon = ")
	if _, err := LoadSettings(dir); err == nil {
		t.Fatal("expected a parse error")
	}
}
