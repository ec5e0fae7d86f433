package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: duelword, Property 4: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		// Each field is independently either empty or a non-empty value.
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasServerURL") {
			cfg.ServerURL = nonEmptyString.Draw(t, "serverURL")
		}
		if rapid.Bool().Draw(t, "hasAttempts") {
			cfg.ReconnectAttempts = rapid.IntRange(1, 50).Draw(t, "attempts")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")
		envLayer := configGen.Draw(t, "env")

		merged := Merge(global, project, envLayer)
		defaults := Defaults()

		checkStringField(t, "DefaultFormat",
			[]string{global.DefaultFormat, project.DefaultFormat, envLayer.DefaultFormat},
			defaults.DefaultFormat, merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			[]string{global.OutputDir, project.OutputDir, envLayer.OutputDir},
			defaults.OutputDir, merged.OutputDir)
		checkStringField(t, "ServerURL",
			[]string{global.ServerURL, project.ServerURL, envLayer.ServerURL},
			defaults.ServerURL, merged.ServerURL)

		want := defaults.ReconnectAttempts
		for _, v := range []int{global.ReconnectAttempts, project.ReconnectAttempts, envLayer.ReconnectAttempts} {
			if v > 0 {
				want = v
			}
		}
		if merged.ReconnectAttempts != want {
			t.Fatalf("ReconnectAttempts: expected %d, got %d", want, merged.ReconnectAttempts)
		}
	})
}

// checkStringField asserts that the last non-empty layer wins, falling back
// to the default when every layer is empty.
func checkStringField(t *rapid.T, name string, layers []string, defaultVal, mergedVal string) {
	t.Helper()
	want := defaultVal
	for _, v := range layers {
		if v != "" {
			want = v
		}
	}
	if mergedVal != want {
		t.Fatalf("%s: expected %q, got %q (layers %q)", name, want, mergedVal, layers)
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if d.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat: want %q, got %q", "markdown", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.AckTimeout() != 10*time.Second {
		t.Errorf("AckTimeout: want 10s, got %v", d.AckTimeout())
	}
	initial, maxDelay := d.ReconnectDelays()
	if initial != time.Second || maxDelay != 5*time.Second {
		t.Errorf("ReconnectDelays: want 1s/5s, got %v/%v", initial, maxDelay)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	if *cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
}

func TestLoadGlobalYAML(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	dir := filepath.Join(tmp, ".config", "duelword")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yml := "server_url: wss://play.example.com/ws\nlanguage: en\nreconnect_attempts: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.ServerURL != "wss://play.example.com/ws" || cfg.Language != "en" || cfg.ReconnectAttempts != 3 {
		t.Errorf("unexpected config: %+v", *cfg)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "duelword")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestLoadEnvLayers(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile(".env", []byte("DUELWORD_STORAGE=sqlite\nDUELWORD_LANGUAGE=en\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Real environment wins over .env.
	t.Setenv("DUELWORD_LANGUAGE", "tr")
	t.Setenv("DUELWORD_ACK_TIMEOUT_SECONDS", "3")
	// godotenv sets variables the test did not; restore them afterwards.
	t.Setenv("DUELWORD_STORAGE", "")
	os.Unsetenv("DUELWORD_STORAGE")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Storage != "sqlite" || cfg.Language != "tr" || cfg.AckTimeoutSeconds != 3 {
		t.Errorf("unexpected env config: %+v", *cfg)
	}
}

func TestLoadMergesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	if err := os.WriteFile(".duelwordrc", []byte(`{"default_format":"json","language":"en"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(&Config{OutputDir: "reports", Language: "tr"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultFormat != "json" || cfg.OutputDir != "reports" || cfg.Language != "en" {
		t.Errorf("unexpected merged config: %+v", cfg)
	}

	t.Setenv("DUELWORD_STORAGE", "redis")
	if _, err := Load(); err == nil {
		t.Error("expected validation error for unknown storage backend")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"language", func(c *Config) { c.Language = "de" }},
		{"storage", func(c *Config) { c.Storage = "redis" }},
		{"format", func(c *Config) { c.DefaultFormat = "html" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"scheme", func(c *Config) { c.ServerURL = "http://example.com" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
