package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("version = %d, want 1", cfg.Version)
	}
	if cfg.Zotero.APIBase != "https://api.zotero.org" {
		t.Errorf("api_base = %s", cfg.Zotero.APIBase)
	}
	if got := cfg.Zotero.RequestTimeout(); got != 60*time.Second {
		t.Errorf("request timeout = %v, want 60s", got)
	}
	if cfg.Site.OutputName != "index.html" {
		t.Errorf("output_name = %s", cfg.Site.OutputName)
	}
	if cfg.Site.MainTextTag != "main-text" {
		t.Errorf("main_text_tag = %s", cfg.Site.MainTextTag)
	}
	if cfg.Site.HeadTitle != "Head" {
		t.Errorf("head_item_title = %s", cfg.Site.HeadTitle)
	}
	if cfg.Site.Images.Dir != "img" || cfg.Site.Images.FullSizeBound != 1200 || cfg.Site.Images.JPEGQuality != 75 {
		t.Errorf("images config = %+v", cfg.Site.Images)
	}
}

func TestLoadConfigurationOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webtero.yaml")
	content := `
zotero:
  user_id: "12345"
  api_key: "sekrit"
  timeout: 10
site:
  output_name: "home.html"
  images:
    full_size_bound: 800
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Zotero.UserID != "12345" || string(cfg.Zotero.APIKey) != "sekrit" || cfg.Zotero.Timeout != 10 {
		t.Errorf("zotero config = %+v", cfg.Zotero)
	}
	if cfg.Site.OutputName != "home.html" {
		t.Errorf("output_name = %s, want override", cfg.Site.OutputName)
	}
	if cfg.Site.Images.FullSizeBound != 800 {
		t.Errorf("full_size_bound = %d, want override", cfg.Site.Images.FullSizeBound)
	}
	// untouched values keep defaults
	if cfg.Site.MainTextTag != "main-text" {
		t.Errorf("main_text_tag = %s, want default", cfg.Site.MainTextTag)
	}
}

func TestLoadConfigurationRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webtero.yaml")
	if err := os.WriteFile(path, []byte("sight:\n  output_name: x\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("LoadConfiguration() accepted unknown top level key")
	}
}

func TestLoadConfigurationValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webtero.yaml")
	if err := os.WriteFile(path, []byte("site:\n  images:\n    jpeg_quality_level: 5\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("LoadConfiguration() accepted out of range jpeg quality")
	}
}

func TestDumpHidesSecrets(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Zotero.APIKey = "super-secret-key"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "super-secret-key") {
		t.Errorf("secret leaked into dump:\n%s", data)
	}
	if !strings.Contains(string(data), SecretStringValue) {
		t.Errorf("secret placeholder missing from dump:\n%s", data)
	}
}
