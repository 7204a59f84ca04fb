package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(filepath.Join(dir, "absent.toml"), envMap(map[string]string{"CLIPLINE_DATA_DIR": dir}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.DataDir != dir {
		t.Fatalf("data dir = %q, want %q", cfg.Paths.DataDir, dir)
	}
	if cfg.Paths.ClipsDir != filepath.Join(dir, "clips") || cfg.Paths.DBPath != filepath.Join(dir, "clipline.db") {
		t.Fatalf("derived paths wrong: %+v", cfg.Paths)
	}
	if cfg.Models.Primary != "gemini-2.0-flash" || cfg.Models.Secondary != "gemini-1.5-flash" {
		t.Fatalf("unexpected models: %+v", cfg.Models)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
data_dir = "` + filepath.Join(dir, "from-file") + `"
clips_dir = "` + filepath.Join(dir, "out") + `"

[gemini]
base_url = " http://127.0.0.1:8089/ "

[models]
provider = "OpenRouter"
primary = "z-ai/glm-4.5-air:free"
secondary = ""

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := load(path, envMap(map[string]string{"CLIPLINE_LOG_LEVEL": "WARN"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "from-file") {
		t.Fatalf("data dir = %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.ClipsDir != filepath.Join(dir, "out") {
		t.Fatalf("clips dir = %q", cfg.Paths.ClipsDir)
	}
	if cfg.Paths.AudioDir != filepath.Join(dir, "from-file", "audio") {
		t.Fatalf("audio dir = %q", cfg.Paths.AudioDir)
	}
	if cfg.Models.Provider != ProviderOpenRouter || cfg.Models.Secondary != "" {
		t.Fatalf("models = %+v", cfg.Models)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.Gemini.BaseURL != "http://127.0.0.1:8089" {
		t.Fatalf("gemini base url = %q", cfg.Gemini.BaseURL)
	}
}

func TestLoadUsesConfigEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alt.toml")
	if err := os.WriteFile(path, []byte("[models]\nprimary = \"gemini-2.5-pro\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := load("", envMap(map[string]string{"CLIPLINE_CONFIG": path, "CLIPLINE_DATA_DIR": dir}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Models.Primary != "gemini-2.5-pro" {
		t.Fatalf("primary = %q", cfg.Models.Primary)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[models\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := load(path, envMap(nil))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"provider", func(c *Config) { c.Models.Provider = "bedrock" }, "models.provider"},
		{"primary", func(c *Config) { c.Models.Primary = "" }, "models.primary"},
		{"temperature", func(c *Config) { c.Models.Temperature = 3 }, "models.temperature"},
		{"ffmpeg", func(c *Config) { c.Tools.FFmpeg = " " }, "tools.ffmpeg"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"data dir", func(c *Config) { c.Paths.DataDir = "" }, "paths.data_dir"},
		{"gemini base url", func(c *Config) { c.Gemini.BaseURL = "localhost:8080" }, "gemini.base_url"},
		{"gemini base url ok", func(c *Config) { c.Gemini.BaseURL = "https://gemini.internal" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigParses(t *testing.T) {
	cfg := Default()
	if err := toml.Unmarshal([]byte(SampleConfig()), &cfg); err != nil {
		t.Fatalf("sample config: %v", err)
	}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(filepath.Join(dir, "none.toml"), envMap(map[string]string{"CLIPLINE_DATA_DIR": dir}))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.ClipsDir, cfg.Paths.AudioDir, cfg.Paths.CacheDir, cfg.Paths.InboxDir} {
		if st, err := os.Stat(d); err != nil || !st.IsDir() {
			t.Fatalf("expected directory %s: %v", d, err)
		}
	}
}
