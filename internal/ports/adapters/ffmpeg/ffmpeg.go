package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/clipline/internal/ports"
)

// captionStyle is the fixed look of burned-in captions (libass force_style).
const captionStyle = `FontName=Arial\,Bold=-1\,FontSize=24\,PrimaryColour=&HFFFFFF\,BorderStyle=3\,Outline=2\,OutlineColour=&H80000000\,Shadow=1\,MarginV=30\,Alignment=2`

type Adapter struct {
	run    ports.Runner
	ffmpeg string
}

func New(run ports.Runner, ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{run: run, ffmpeg: ffmpegPath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error {
	args := []string{
		"-i", inMP4,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		"-loglevel", "error",
		outWav,
	}
	if err := a.run.Run(ctx, a.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

func (a *Adapter) BurnSubtitles(ctx context.Context, videoPath, srtPath string) error {
	out := burnOutputPath(videoPath)
	if err := a.run.Run(ctx, a.ffmpeg, burnArgs(videoPath, srtPath, out)...); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("ffmpeg burn subtitles: %w", err)
	}
	if err := os.Rename(out, videoPath); err != nil {
		_ = os.Remove(out)
		return fmt.Errorf("replace %s: %w", filepath.Base(videoPath), err)
	}
	return nil
}

func burnOutputPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "_with_subs.mp4"
}

func burnArgs(videoPath, srtPath, out string) []string {
	return []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srtPath), captionStyle),
		"-movflags", "+faststart",
		"-c:a", "copy",
		"-y",
		"-loglevel", "error",
		out,
	}
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
