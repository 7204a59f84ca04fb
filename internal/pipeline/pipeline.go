package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/forPelevin/clipline/internal/config"
	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/ports/adapters/deepgram"
	"github.com/forPelevin/clipline/internal/ports/adapters/execrun"
	"github.com/forPelevin/clipline/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipline/internal/ports/adapters/gemini"
	"github.com/forPelevin/clipline/internal/ports/adapters/openrouter"
	"github.com/forPelevin/clipline/internal/ports/adapters/secrets"
	"github.com/forPelevin/clipline/internal/ports/adapters/sqlite"
	"github.com/forPelevin/clipline/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/clipline/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/clipline/internal/types"
	"github.com/forPelevin/clipline/internal/usecase"
)

// ErrLocked means another process holds the data directory.
var ErrLocked = errors.New("data directory is in use by another clipline process")

const lockName = "clipline.lock"

type Options struct {
	Log *slog.Logger
	// ReadOnly skips the data-dir lock; use it for listing commands only.
	ReadOnly bool
}

// Pipeline owns the store, the data-dir lock and the wired use cases.
type Pipeline struct {
	usecase.Usecase

	cfg   *config.Config
	store *sqlite.Store
	lock  *flock.Flock
	log   *slog.Logger
}

func Open(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", types.ErrConfiguration)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, log: log}
	if !opts.ReadOnly {
		p.lock = flock.New(filepath.Join(cfg.Paths.DataDir, lockName))
		ok, err := p.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w (%s)", ErrLocked, p.lock.Path())
		}
	}

	store, err := sqlite.Open(cfg.Paths.DBPath)
	if err != nil {
		p.unlock()
		return nil, err
	}
	p.store = store

	creds := secrets.New(cfg.Paths.SecretsFile)
	llm, err := newGenerator(cfg, creds)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	run := execrun.New()
	p.Usecase = usecase.New(usecase.Deps{
		Store:          store,
		Downloader:     ytdlp.New(run, cfg.Tools.YTDLP),
		Video:          ffmpeg.New(run, cfg.Tools.FFmpeg),
		ASR:            whispercpp.New(run, cfg.Tools.WhisperBin, cfg.Tools.WhisperModel, cfg.Tools.WhisperLanguage),
		STT:            deepgram.New(creds, cfg.Deepgram.Model, cfg.Deepgram.BaseURL),
		LLM:            llm,
		Progress:       progress.NewHub(),
		Log:            log,
		ClipsDir:       cfg.Paths.ClipsDir,
		AudioDir:       cfg.Paths.AudioDir,
		CacheDir:       cfg.Paths.CacheDir,
		PrimaryModel:   cfg.Models.Primary,
		SecondaryModel: cfg.Models.Secondary,
	})
	log.Debug("pipeline opened",
		"db", store.Path(),
		"provider", cfg.Models.Provider,
		"primary", cfg.Models.Primary,
		"secondary", cfg.Models.Secondary,
		"read_only", opts.ReadOnly)
	return p, nil
}

// Validate checks the parts of cfg that only the wiring layer understands.
func Validate(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Models.Provider == config.ProviderOpenRouter {
		return openrouter.ValidateBaseURL(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AllowedHosts)
	}
	return nil
}

func (p *Pipeline) Config() *config.Config { return p.cfg }

func (p *Pipeline) Close() error {
	var err error
	if p.store != nil {
		err = p.store.Close()
	}
	p.unlock()
	return err
}

func (p *Pipeline) unlock() {
	if p.lock == nil {
		return
	}
	if err := p.lock.Unlock(); err != nil {
		p.log.Warn("failed to release data-dir lock", "error", err)
	}
}

func newGenerator(cfg *config.Config, creds ports.Credentials) (ports.Generator, error) {
	switch cfg.Models.Provider {
	case config.ProviderGemini:
		return gemini.New(creds, cfg.Models.Temperature, cfg.Gemini.BaseURL), nil
	case config.ProviderOpenRouter:
		return openrouter.New(creds, cfg.OpenRouter.BaseURL, cfg.Models.Temperature), nil
	default:
		return nil, fmt.Errorf("%w: unsupported model provider %q", types.ErrConfiguration, cfg.Models.Provider)
	}
}

// ensure adapters implement ports
var (
	_ ports.Store       = (*sqlite.Store)(nil)
	_ ports.Downloader  = (*ytdlp.Adapter)(nil)
	_ ports.VideoTool   = (*ffmpeg.Adapter)(nil)
	_ ports.ASR         = (*whispercpp.Adapter)(nil)
	_ ports.STT         = (*deepgram.Adapter)(nil)
	_ ports.Generator   = (*gemini.Adapter)(nil)
	_ ports.Generator   = (*openrouter.Adapter)(nil)
	_ ports.Credentials = (*secrets.Store)(nil)
	_ ports.Runner      = (*execrun.Runner)(nil)
)
