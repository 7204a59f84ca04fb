package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds every on-disk location. Empty entries derive from DataDir.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	ClipsDir    string `toml:"clips_dir"`
	AudioDir    string `toml:"audio_dir"`
	CacheDir    string `toml:"cache_dir"`
	DBPath      string `toml:"db_path"`
	InboxDir    string `toml:"inbox_dir"`
	SecretsFile string `toml:"secrets_file"`
}

// Tools names the external binaries and the local speech model.
type Tools struct {
	YTDLP           string `toml:"ytdlp"`
	FFmpeg          string `toml:"ffmpeg"`
	WhisperBin      string `toml:"whisper_bin"`
	WhisperModel    string `toml:"whisper_model"`
	WhisperLanguage string `toml:"whisper_language"`
}

// Models selects the generative-model provider and the fallback pair.
type Models struct {
	Provider    string  `toml:"provider"`
	Primary     string  `toml:"primary"`
	Secondary   string  `toml:"secondary"`
	Temperature float32 `toml:"temperature"`
}

// Gemini overrides the API endpoint; empty uses the SDK default.
type Gemini struct {
	BaseURL string `toml:"base_url"`
}

type Deepgram struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

type OpenRouter struct {
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Models     Models     `toml:"models"`
	Gemini     Gemini     `toml:"gemini"`
	Deepgram   Deepgram   `toml:"deepgram"`
	OpenRouter OpenRouter `toml:"openrouter"`
	Logging    Logging    `toml:"logging"`
}

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Default returns the built-in configuration before any file or env override.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir(),
			SecretsFile: "~/.config/clipline/secrets.yaml",
		},
		Tools: Tools{
			YTDLP:           "yt-dlp",
			FFmpeg:          "ffmpeg",
			WhisperBin:      "whisper-cli",
			WhisperModel:    "~/.cache/whisper/ggml-base.en.bin",
			WhisperLanguage: "en",
		},
		Models: Models{
			Provider:    ProviderGemini,
			Primary:     "gemini-2.0-flash",
			Secondary:   "gemini-1.5-flash",
			Temperature: 0.7,
		},
		Deepgram: Deepgram{
			Model:   "nova-2",
			BaseURL: "https://api.deepgram.com",
		},
		OpenRouter: OpenRouter{
			BaseURL:      "https://openrouter.ai",
			AllowedHosts: []string{"openrouter.ai"},
		},
		Logging: Logging{Format: "auto", Level: "info"},
	}
}

// SampleConfig returns an annotated config file matching Default.
func SampleConfig() string { return sampleConfig }

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/clipline/config.toml")
}

// Load reads path (or CLIPLINE_CONFIG, or the default location), applies
// environment overrides, then normalizes and validates the result. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getenv("CLIPLINE_CONFIG")
	}
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("CLIPLINE_DATA_DIR")); v != "" {
		c.Paths.DataDir = v
	}
	if v := strings.TrimSpace(getenv("CLIPLINE_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(getenv("CLIPLINE_MODEL_TEMPERATURE")); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("CLIPLINE_MODEL_TEMPERATURE: %w", err)
		}
		c.Models.Temperature = float32(f)
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	derive := func(dst *string, name string) error {
		if strings.TrimSpace(*dst) == "" {
			*dst = filepath.Join(c.Paths.DataDir, name)
			return nil
		}
		v, err := ExpandPath(*dst)
		*dst = v
		return err
	}
	for _, p := range []struct {
		dst  *string
		name string
	}{
		{&c.Paths.ClipsDir, "clips"},
		{&c.Paths.AudioDir, "audio"},
		{&c.Paths.CacheDir, "cache"},
		{&c.Paths.DBPath, "clipline.db"},
		{&c.Paths.InboxDir, "inbox"},
	} {
		if err := derive(p.dst, p.name); err != nil {
			return err
		}
	}
	if c.Paths.SecretsFile != "" {
		if c.Paths.SecretsFile, err = ExpandPath(c.Paths.SecretsFile); err != nil {
			return err
		}
	}
	if strings.HasPrefix(c.Tools.WhisperModel, "~") {
		if c.Tools.WhisperModel, err = ExpandPath(c.Tools.WhisperModel); err != nil {
			return err
		}
	}
	c.Models.Provider = strings.ToLower(strings.TrimSpace(c.Models.Provider))
	c.Models.Primary = strings.TrimSpace(c.Models.Primary)
	c.Models.Secondary = strings.TrimSpace(c.Models.Secondary)
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	for name, v := range map[string]string{
		"tools.ytdlp":         c.Tools.YTDLP,
		"tools.ffmpeg":        c.Tools.FFmpeg,
		"tools.whisper_bin":   c.Tools.WhisperBin,
		"tools.whisper_model": c.Tools.WhisperModel,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	switch c.Models.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("models.provider: unsupported value %q (want %s or %s)", c.Models.Provider, ProviderGemini, ProviderOpenRouter)
	}
	if c.Models.Primary == "" {
		return errors.New("models.primary must be set")
	}
	if c.Models.Temperature < 0 || c.Models.Temperature > 2 {
		return errors.New("models.temperature must be between 0 and 2")
	}
	if c.Gemini.BaseURL != "" {
		u, err := url.Parse(c.Gemini.BaseURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("gemini.base_url: %q is not an absolute http(s) URL", c.Gemini.BaseURL)
		}
	}
	switch c.Logging.Format {
	case "", "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.ClipsDir,
		c.Paths.AudioDir,
		c.Paths.CacheDir,
		c.Paths.InboxDir,
		filepath.Dir(c.Paths.DBPath),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "clipline")
	}
	return "~/.local/share/clipline"
}
