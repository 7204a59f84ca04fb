package usecase

import (
	"context"
	"fmt"
	"os"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/types"
)

// EnsureTranscript makes sure videoID has a stored transcript. Already
// transcribed videos are left alone. Unknown videos are inserted with their
// metadata once transcription succeeds. Failures mark the video errored.
func (u Usecase) EnsureTranscript(ctx context.Context, videoID string) error {
	log := u.d.Log.With("video_id", videoID)

	v, err := u.d.Store.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if v != nil && v.Status == types.VideoTranscribed && v.Transcript != nil {
		log.Info("video already transcribed, skipping")
		return nil
	}

	if err := u.transcribe(ctx, videoID, v); err != nil {
		log.Error("transcription failed", "error", err)
		u.markVideoError(ctx, videoID, err)
		return fmt.Errorf("transcribe %s: %w", videoID, err)
	}
	log.Info("video transcribed")
	return nil
}

func (u Usecase) transcribe(ctx context.Context, videoID string, existing *types.Video) error {
	tr, err := u.transcriptFromAudio(ctx, videoID)
	if err != nil {
		return err
	}

	if existing != nil {
		return u.d.Store.SetVideoTranscript(ctx, videoID, tr)
	}

	meta, err := u.d.Downloader.Metadata(ctx, videoID)
	if err != nil {
		return err
	}
	return u.d.Store.InsertVideo(ctx, &types.Video{
		ID:          videoID,
		Title:       meta.Title,
		ChannelName: meta.ChannelName,
		ChannelID:   meta.ChannelID,
		PublishedAt: meta.PublishedAt,
		Context:     meta.Description,
		Transcript:  tr,
		Status:      types.VideoTranscribed,
	})
}

// transcriptFromAudio reuses a cached <videoID>.wav when present, converts it
// to mono 16 kHz for whisper, and removes both files once the transcript is
// in hand.
func (u Usecase) transcriptFromAudio(ctx context.Context, videoID string) (types.Transcript, error) {
	if err := os.MkdirAll(u.d.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	wav := u.audioPath(videoID)
	if !fileExists(wav) {
		u.d.Progress.Update(videoID, progress.Update{
			Stage:   progress.Ptr(progress.StageDownload),
			Message: progress.Ptr("Downloading audio..."),
		})
		if err := u.d.Downloader.DownloadAudio(ctx, videoID, wav); err != nil {
			return nil, err
		}
		if !fileExists(wav) {
			return nil, fmt.Errorf("audio file not found for %s after download", videoID)
		}
	}

	u.d.Progress.Update(videoID, progress.Update{
		Stage:   progress.Ptr(progress.StageTranscription),
		Message: progress.Ptr("Transcribing audio..."),
	})
	mono := u.monoAudioPath(videoID)
	if err := u.d.Video.ExtractAudioMono16k(ctx, wav, mono); err != nil {
		_ = removeIfExists(mono)
		return nil, err
	}
	defer func() {
		if err := removeIfExists(mono); err != nil {
			u.d.Log.Warn("remove converted audio failed", "video_id", videoID, "error", err)
		}
	}()

	if err := os.MkdirAll(u.d.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	tr, err := u.d.ASR.Transcribe(ctx, mono, u.d.CacheDir)
	if err != nil {
		return nil, err
	}
	if len(tr) == 0 {
		return nil, fmt.Errorf("%w: empty transcript", types.ErrValidation)
	}
	if err := removeIfExists(wav); err != nil {
		u.d.Log.Warn("remove cached audio failed", "video_id", videoID, "error", err)
	}
	return tr, nil
}
