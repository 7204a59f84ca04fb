package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forPelevin/clipline/internal/domain/subtitles"
	"github.com/forPelevin/clipline/internal/types"
)

// Produce renders one clip: range download, audio extraction, word-level
// STT, caption burn-in. It returns immediately when the clip's media file
// already exists. On failure the clip is marked errored, partial media is
// removed, and the error is returned. The extracted audio is always removed.
func (u Usecase) Produce(ctx context.Context, clip types.Clip) (string, error) {
	log := u.d.Log.With("video_id", clip.VideoID, "clip_id", clip.ID)

	out := u.ClipPath(clip.ID)
	if fileExists(out) {
		log.Info("clip already produced, skipping")
		return clip.ID, nil
	}

	audio := filepath.Join(u.d.ClipsDir, clip.ID+".wav")
	defer func() {
		if err := removeIfExists(audio); err != nil {
			log.Warn("remove clip audio failed", "error", err)
		}
	}()

	if err := u.produce(ctx, log, clip, out, audio); err != nil {
		log.Error("clip production failed", "error", err)
		if rmErr := removeIfExists(out); rmErr != nil {
			log.Warn("remove partial clip failed", "error", rmErr)
		}
		if stErr := u.d.Store.SetClipStatus(context.WithoutCancel(ctx), clip.ID, types.ClipError, err.Error()); stErr != nil {
			log.Error("mark clip error failed", "error", stErr)
		}
		return "", fmt.Errorf("produce clip %s: %w", clip.ID, err)
	}

	log.Info("clip produced", "path", out)
	return clip.ID, nil
}

func (u Usecase) produce(ctx context.Context, log *slog.Logger, clip types.Clip, out, audio string) error {
	if err := os.MkdirAll(u.d.ClipsDir, 0o755); err != nil {
		return fmt.Errorf("create clips dir: %w", err)
	}

	if err := u.d.Downloader.DownloadRange(ctx, clip.VideoID, clip.StartTime, clip.EndTime, out); err != nil {
		return err
	}
	u.d.Progress.UpdateClip(clip.VideoID, clip.ID, 25)

	if err := u.d.Video.ExtractAudioMono16k(ctx, out, audio); err != nil {
		return err
	}
	u.d.Progress.UpdateClip(clip.VideoID, clip.ID, 50)

	resp, raw, err := u.d.STT.Transcribe(ctx, audio)
	if err != nil {
		return err
	}
	if err := u.d.Store.SetClipSTTResponse(ctx, clip.ID, string(raw)); err != nil {
		return err
	}
	u.d.Progress.UpdateClip(clip.VideoID, clip.ID, 75)

	if err := u.caption(ctx, log, clip, resp, out); err != nil {
		return err
	}

	if err := u.d.Store.SetClipStatus(ctx, clip.ID, types.ClipProduced, ""); err != nil {
		return err
	}
	u.d.Progress.UpdateClip(clip.VideoID, clip.ID, 100)
	return nil
}

// caption stores the SRT track and burns it into video. No words at all
// means no captions, which is not an error.
func (u Usecase) caption(ctx context.Context, log *slog.Logger, clip types.Clip, resp types.STTResponse, video string) error {
	srt, blocks := subtitles.BuildSRT(resp, subtitles.MaxWordsPerCaption)
	if blocks == 0 {
		log.Warn("no transcript words for clip, skipping captions")
		return nil
	}

	srtPath := filepath.Join(u.d.ClipsDir, clip.ID+".srt")
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	defer func() {
		if err := removeIfExists(srtPath); err != nil {
			log.Warn("remove srt failed", "error", err)
		}
	}()

	if err := u.d.Store.SetClipSRT(ctx, clip.ID, srt); err != nil {
		return err
	}
	return u.d.Video.BurnSubtitles(ctx, video, srtPath)
}
