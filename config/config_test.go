package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigAppliesDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
telegram:
  bot_username: "@darah_bot"
data_freshness:
  refresh_interval: "6h"
lookups:
  path: "lookups.yaml"
`)
	t.Setenv(EnvTelegramToken, "123:abc")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("expected token from env, got %q", cfg.Telegram.Token)
	}
	if cfg.DataFreshness.RefreshInterval != 6*time.Hour {
		t.Fatalf("expected 6h refresh interval, got %s", cfg.DataFreshness.RefreshInterval)
	}
	if cfg.Datasets.FetchTimeout != 2*time.Minute {
		t.Fatalf("expected default fetch timeout, got %s", cfg.Datasets.FetchTimeout)
	}
	if cfg.Reports.RegularDonorThreshold != 3 {
		t.Fatalf("expected default threshold 3, got %d", cfg.Reports.RegularDonorThreshold)
	}
	if cfg.Normalization.Policy != "reject" {
		t.Fatalf("expected reject policy, got %q", cfg.Normalization.Policy)
	}
	if cfg.Lookups.Path != filepath.Join(dir, "lookups.yaml") {
		t.Fatalf("expected lookups path relative to config, got %q", cfg.Lookups.Path)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"missing token":   "normalization:\n  policy: reject\n",
		"bad policy":      "telegram:\n  token: x\nnormalization:\n  policy: maybe\n",
		"bad url":         "telegram:\n  token: x\ndatasets:\n  donations_state_csv: not a url\n",
		"bad duration":    "telegram:\n  token: x\ndata_freshness:\n  refresh_interval: soon\n",
		"selector needed": "telegram:\n  token: x\ndata_freshness:\n  catalogue_page_url: https://data.moh.gov.my/\n",
		"db needs host":   "telegram:\n  token: x\ndatabase:\n  enabled: true\n  host: \"\"\n",
	}
	t.Setenv(EnvTelegramToken, "")
	for name, body := range cases {
		path := writeFile(t, t.TempDir(), "config.yaml", body)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestEmbeddedLookupsCoverOriginalTables(t *testing.T) {
	lookups, err := LoadLookups("")
	if err != nil {
		t.Fatalf("load embedded lookups: %v", err)
	}
	if len(lookups.HospitalStates) != 22 {
		t.Fatalf("expected 22 hospitals, got %d", len(lookups.HospitalStates))
	}
	if len(lookups.StateColors) != 13 {
		t.Fatalf("expected 13 state colours, got %d", len(lookups.StateColors))
	}
	state, err := lookups.StateOf("Pusat Darah Negara")
	if err != nil || state != "W.P. Kuala Lumpur" {
		t.Fatalf("expected W.P. Kuala Lumpur, got %q (%v)", state, err)
	}
	if lookups.StateColors[0].State != "Sabah" {
		t.Fatalf("expected legend order to start with Sabah, got %s", lookups.StateColors[0].State)
	}
}

func TestParseLookupsRequiresColourForEveryState(t *testing.T) {
	_, err := ParseLookups([]byte(`
hospital_states:
  Hospital Melaka: Melaka
state_colors:
  - {state: Sabah, color: blue}
`))
	if err == nil || !strings.Contains(err.Error(), "no colour") {
		t.Fatalf("expected missing colour error, got %v", err)
	}
}
