package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/forPelevin/clipline/internal/domain/fallback"
	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

type Deps struct {
	Store      ports.Store
	Downloader ports.Downloader
	Video      ports.VideoTool
	ASR        ports.ASR
	STT        ports.STT
	LLM        ports.Generator
	Progress   *progress.Hub
	Log        *slog.Logger

	ClipsDir string // <clipID>.mp4, plus per-clip .wav/.srt while producing
	AudioDir string // <videoID>.wav cache for long-form transcription
	CacheDir string // ASR scratch space

	PrimaryModel   string
	SecondaryModel string

	NewID func() string
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	if d.Progress == nil {
		d.Progress = progress.NewHub()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return Usecase{d: d}
}

func (u Usecase) Progress() *progress.Hub { return u.d.Progress }

// ClipPath is where the produced media for clipID lives. Its existence marks
// the clip as produced.
func (u Usecase) ClipPath(clipID string) string {
	return filepath.Join(u.d.ClipsDir, clipID+".mp4")
}

func (u Usecase) audioPath(videoID string) string {
	return filepath.Join(u.d.AudioDir, videoID+".wav")
}

func (u Usecase) monoAudioPath(videoID string) string {
	return filepath.Join(u.d.AudioDir, videoID+".16k.wav")
}

// generate calls the model through the primary/secondary fallback policy.
func (u Usecase) generate(ctx context.Context, log *slog.Logger, prompt string) (string, error) {
	p := fallback.Policy[string]{
		Classify: fallback.IsUnavailable,
		OnFallback: func(err error) {
			log.Warn("primary model unavailable, retrying with secondary",
				"primary", u.d.PrimaryModel, "secondary", u.d.SecondaryModel, "error", err)
		},
	}
	call := func(ctx context.Context, model string) (string, error) {
		return u.d.LLM.Generate(ctx, model, prompt)
	}
	return fallback.Models(p, u.d.PrimaryModel, u.d.SecondaryModel, call)(ctx)
}

// markVideoError records err on the video. A missing row is not an error.
func (u Usecase) markVideoError(ctx context.Context, videoID string, cause error) {
	err := u.d.Store.SetVideoStatus(context.WithoutCancel(ctx), videoID, types.VideoError, cause.Error())
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		u.d.Log.Error("mark video error failed", "video_id", videoID, "error", err)
	}
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
