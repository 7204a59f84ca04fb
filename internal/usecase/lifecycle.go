package usecase

import (
	"context"
	"fmt"

	"github.com/forPelevin/clipline/internal/domain/highlights"
	"github.com/forPelevin/clipline/internal/domain/progress"
)

// Process runs transcription, analysis, then production of every new clip
// in order. A clip failure is logged and does not stop the run. Any other
// failure marks the video errored. The progress entry is always cleared.
func (u Usecase) Process(ctx context.Context, videoID string) error {
	defer u.d.Progress.Clear(videoID)

	if err := u.process(ctx, videoID); err != nil {
		u.d.Log.Error("video processing failed", "video_id", videoID, "error", err)
		u.markVideoError(ctx, videoID, err)
		return err
	}
	return nil
}

func (u Usecase) process(ctx context.Context, videoID string) error {
	log := u.d.Log.With("video_id", videoID)
	hub := u.d.Progress

	if err := u.EnsureTranscript(ctx, videoID); err != nil {
		return err
	}

	hub.Update(videoID, progress.Update{
		Stage:    progress.Ptr(progress.StageAnalysis),
		Progress: progress.Ptr(0.0),
		Message:  progress.Ptr("Analyzing transcript..."),
	})
	existing, err := u.existingClips(ctx, videoID)
	if err != nil {
		return err
	}
	clips, err := u.Analyze(ctx, AnalyzeInput{
		VideoID:    videoID,
		PromptType: highlights.PromptDefault,
		Existing:   existing,
	})
	if err != nil {
		return err
	}

	tracked := make([]progress.ClipProgress, 0, len(clips))
	for _, c := range clips {
		tracked = append(tracked, progress.ClipProgress{ClipID: c.ID})
	}
	hub.Update(videoID, progress.Update{
		Stage:    progress.Ptr(progress.StageAnalysis),
		Progress: progress.Ptr(100.0),
		Message:  progress.Ptr(fmt.Sprintf("Found %d clips", len(clips))),
		Clips:    tracked,
	})

	total := len(clips)
	for i, c := range clips {
		hub.Update(videoID, progress.Update{
			Stage:    progress.Ptr(progress.StageProduction),
			Progress: progress.Ptr(fraction(i, total)),
			Message:  progress.Ptr(fmt.Sprintf("Producing clip %d of %d", i+1, total)),
		})
		if _, err := u.Produce(ctx, c); err != nil {
			log.Warn("clip failed, continuing", "clip_id", c.ID, "error", err)
		}
		hub.Update(videoID, progress.Update{
			Stage:    progress.Ptr(progress.StageProduction),
			Progress: progress.Ptr(fraction(i+1, total)),
		})
	}

	hub.Update(videoID, progress.Update{
		Stage:    progress.Ptr(progress.StageComplete),
		Progress: progress.Ptr(100.0),
		Message:  progress.Ptr("Processing complete"),
	})
	log.Info("video processed", "clips", total)
	return nil
}

func fraction(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
