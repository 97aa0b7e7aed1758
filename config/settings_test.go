package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadCreatesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	m := NewManagerWithFs(fsys, "cache/settings.json")

	s, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Server.Port != 7788 || s.Dashboard.HeadlineSize != 5 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if ok, _ := afero.Exists(fsys, "cache/settings.json"); !ok {
		t.Fatal("expected settings file to be written")
	}
	if ok, _ := afero.Exists(fsys, "cache/settings.json.tmp"); ok {
		t.Fatal("temp file should be renamed away")
	}
}

func TestSaveAndLoadRoundTripTOML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	m := NewManagerWithFs(fsys, "watchwise.toml")

	s := DefaultSettings()
	s.Backend.URL = "https://api.example.com"
	s.Availability.Region = "GB"
	if err := m.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := afero.ReadFile(fsys, "watchwise.toml")
	if !strings.Contains(string(data), "[backend]") {
		t.Fatalf("expected toml output, got %s", data)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Backend.URL != "https://api.example.com" || loaded.Availability.Region != "GB" {
		t.Fatalf("unexpected settings: %+v", loaded)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "settings.json", []byte(`{"backend":{"url":"http://b"},"availability":{"region":" us "}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewManagerWithFs(fsys, "settings.json").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Backend.RetryAttempts != 3 || s.Backend.TimeoutSeconds != 15 || s.Server.Port != 7788 {
		t.Fatalf("expected backfilled values, got %+v", s)
	}
	if s.Availability.Region != "US" {
		t.Fatalf("expected normalised region, got %q", s.Availability.Region)
	}
	if err := Validate(s); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "settings.json", []byte(`{"server":`), 0o644)
	if _, err := NewManagerWithFs(fsys, "settings.json").Load(); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := NewManagerWithFs(fsys, "").Load(); err != ErrPathNotSet {
		t.Fatalf("expected ErrPathNotSet, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBackendURL: "https://override.example.com",
		EnvAPIToken:   "tok",
		EnvPort:       "9000",
	}
	s := DefaultSettings()
	if err := ApplyEnv(&s, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if s.Backend.URL != env[EnvBackendURL] || s.Backend.Token != "tok" || s.Server.Port != 9000 {
		t.Fatalf("unexpected settings: %+v", s)
	}

	env[EnvPort] = "not-a-port"
	if err := ApplyEnv(&s, func(k string) string { return env[k] }); err == nil {
		t.Fatal("expected port parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WATCHWISE_TEST_DOTENV=loaded\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("WATCHWISE_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("WATCHWISE_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected variable from .env, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	s := DefaultSettings()
	if err := Validate(s); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	s.Backend.URL = "not a url"
	s.Availability.Region = "usa"
	err := Validate(s)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "Settings.Backend.URL") || !strings.Contains(err.Error(), "Settings.Availability.Region") {
		t.Fatalf("unexpected error: %v", err)
	}
}
