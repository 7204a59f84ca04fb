package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

type Adapter struct {
	run ports.Runner
	bin string
}

func New(run ports.Runner, binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{run: run, bin: binPath}
}

func (a *Adapter) Metadata(ctx context.Context, videoID string) (types.VideoMetadata, error) {
	b, err := a.run.Output(ctx, a.bin, "--dump-single-json", "--skip-download", "--no-warnings", types.VideoURL(videoID))
	if err != nil {
		return types.VideoMetadata{}, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	return parseMetadata(b)
}

// DownloadAudio writes outWav; yt-dlp picks the extension so the template ends in %(ext)s.
func (a *Adapter) DownloadAudio(ctx context.Context, videoID, outWav string) error {
	if err := os.MkdirAll(filepath.Dir(outWav), 0o755); err != nil {
		return err
	}
	tmpl := strings.TrimSuffix(outWav, filepath.Ext(outWav)) + ".%(ext)s"
	args := []string{
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "8",
		"-o", tmpl,
		types.VideoURL(videoID),
	}
	if err := a.run.Run(ctx, a.bin, args...); err != nil {
		return fmt.Errorf("yt-dlp download audio: %w", err)
	}
	return nil
}

func (a *Adapter) DownloadRange(ctx context.Context, videoID string, start, end float64, outMP4 string) error {
	if err := os.MkdirAll(filepath.Dir(outMP4), 0o755); err != nil {
		return err
	}
	if err := a.run.Run(ctx, a.bin, rangeArgs(videoID, start, end, outMP4)...); err != nil {
		return fmt.Errorf("yt-dlp download range: %w", err)
	}
	return nil
}

func rangeArgs(videoID string, start, end float64, outMP4 string) []string {
	return []string{
		// https first: ffmpeg cannot cut long videos from the m3u8 formats.
		"-S", "proto:https",
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--force-keyframes-at-cuts",
		"--download-sections", fmt.Sprintf("*%s-%s", fmtSeconds(start), fmtSeconds(end)),
		"--merge-output-format", "mp4",
		"-o", outMP4,
		types.VideoURL(videoID),
	}
}

func parseMetadata(b []byte) (types.VideoMetadata, error) {
	var raw struct {
		Type        string  `json:"_type"`
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Channel     string  `json:"channel"`
		ChannelID   string  `json:"channel_id"`
		UploadDate  string  `json:"upload_date"`
		Description string  `json:"description"`
		Duration    float64 `json:"duration"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	if raw.Type != "" && raw.Type != "video" {
		return types.VideoMetadata{}, fmt.Errorf("%w: provided URL is not a video (%s)", types.ErrValidation, raw.Type)
	}
	m := types.VideoMetadata{
		ID:          raw.ID,
		Title:       raw.Title,
		ChannelID:   raw.ChannelID,
		ChannelName: raw.Channel,
		Description: raw.Description,
		Duration:    raw.Duration,
	}
	if raw.UploadDate != "" {
		t, err := time.Parse("20060102", raw.UploadDate)
		if err != nil {
			return types.VideoMetadata{}, fmt.Errorf("parse upload_date %q: %w", raw.UploadDate, err)
		}
		m.PublishedAt = t.UTC()
	}
	return m, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
