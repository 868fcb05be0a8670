package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spektr-org/cardbuffet/engine"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[server]
port = 9090

[store]
kind = "Postgres"
dsn_env = "CARDBUFFET_TEST_DSN"

[engine]
default_display_count = 5
default_percentage_base = "displayed"
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Engine.Currency != "$" {
		t.Errorf("currency default lost: %q", cfg.Engine.Currency)
	}

	t.Setenv("CARDBUFFET_TEST_DSN", "postgres://localhost/cards")
	opts := cfg.StoreOptions()
	if opts.Kind != "postgres" || opts.DSN != "postgres://localhost/cards" {
		t.Errorf("store options = %+v", opts)
	}

	view := cfg.ViewDefaults()
	if view.DisplayCount != 5 || view.PercentageBase != engine.BaseDisplayed || !view.IncludeOverflowBucket {
		t.Errorf("view defaults = %+v", view)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	bad := []string{
		"[server]\nport = 0\n",
		"[engine]\ndefault_percentage_base = \"median\"\n",
		"[engine]\ndefault_display_count = -1\n",
		"[server\n",
	}
	for _, doc := range bad {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Kind != "file" || cfg.ViewDefaults().PercentageBase != "" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestEngineOptionsLoadsMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.yaml")
	if err := os.WriteFile(path, []byte("default:\n  obligations:\n    all: [bar]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Engine.MatrixPath = path
	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 2 {
		t.Errorf("options = %d, want currency + selector", len(opts))
	}

	cfg.Engine.MatrixPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.EngineOptions(); err == nil {
		t.Error("missing matrix must fail")
	}
}
