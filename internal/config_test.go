package internal

import (
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/starford/tavla/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestHTTPConfigPortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	cfg := HTTPConfig{Port: 9090}
	if err := cfg.Validate(); err != nil {
		t.Errorf("port 9090 should pass: %v", err)
	}
}

func TestDataConfigRequiresPath(t *testing.T) {
	cfg := DataConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty data path should fail validation")
	}
}

func TestSQLiteConfigRequiresPath(t *testing.T) {
	cfg := SQLiteConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty sqlite path should fail validation")
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  http:
    port: 9191
data:
  path: /var/lib/tavla/data
sqlite:
  path: /var/lib/tavla/tavla.db
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9191 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.Data.Path != "/var/lib/tavla/data" {
		t.Errorf("data path = %q", cfg.Data.Path)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("TAVLA_TEST_DATA", "/tmp/envdata")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  http:
    port: 8080
data:
  path: ${TAVLA_TEST_DATA}
sqlite:
  path: ./tavla.db
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.Path != "/tmp/envdata" {
		t.Errorf("data path = %q", cfg.Data.Path)
	}
}

func TestLoadIfPresentMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(filepath.Join(t.TempDir(), "nope.yaml"), cfg); err != nil {
		t.Fatalf("LoadIfPresent: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d, want default", cfg.App.HTTP.Port)
	}
}

func TestLoadConfigInvalidPortFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  http:
    port: 0
data:
  path: ./data
sqlite:
  path: ./tavla.db
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err == nil {
		t.Error("port 0 should fail validation")
	}
}
