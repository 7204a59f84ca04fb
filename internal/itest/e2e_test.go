//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/clipline/internal/config"
	"github.com/forPelevin/clipline/internal/domain/highlights"
	"github.com/forPelevin/clipline/internal/pipeline"
	"github.com/forPelevin/clipline/internal/types"
)

// TestE2E runs the whole pipeline against a real video. It needs network
// access, yt-dlp, ffmpeg, whisper.cpp and both API keys.
func TestE2E(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "DEEPGRAM_API_KEY"} {
		if os.Getenv(k) == "" {
			t.Fatalf("%s is required for itest", k)
		}
	}
	videoID := os.Getenv("CLIPLINE_E2E_VIDEO")
	if videoID == "" {
		videoID = "jNQXAC9IVRw"
	}

	dir := t.TempDir()
	t.Setenv("CLIPLINE_DATA_DIR", dir)
	cfg, err := config.Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if v := os.Getenv("WHISPER_BIN"); v != "" {
		cfg.Tools.WhisperBin = v
	}
	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		cfg.Tools.WhisperModel = v
	}

	p, err := pipeline.Open(cfg, pipeline.Options{})
	if err != nil {
		t.Fatalf("open pipeline: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := p.Submit(ctx, videoID); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if p.Progress().Has(videoID) {
		t.Fatalf("progress entry not cleared after completion")
	}

	st, err := p.Status(ctx, videoID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != types.VideoTranscribed {
		t.Fatalf("video status = %s (%s)", st.Status, st.Error)
	}

	clips, err := p.ClipsByID(ctx, st.Produced)
	if err != nil {
		t.Fatalf("load clips: %v", err)
	}
	for _, c := range clips {
		got, err := probeDurationSeconds(p.ClipPath(c.ID))
		if err != nil {
			t.Fatalf("ffprobe %s: %v", c.ID, err)
		}
		// keyframe-aligned cuts can run a few seconds long
		if got < c.Duration()-2 || got > c.Duration()+10 {
			t.Fatalf("clip %s duration %.1fs, stored range %.1fs", c.ID, got, c.Duration())
		}
		if c.Duration() < highlights.MinClipSeconds || c.Duration() > highlights.MaxClipSeconds {
			t.Fatalf("clip %s range %.1fs outside accepted bounds", c.ID, c.Duration())
		}
	}
}
