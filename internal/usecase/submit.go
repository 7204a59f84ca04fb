package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/types"
)

// Register validates videoID against the source platform and records it as
// pending. A video that already exists is reset to pending.
func (u Usecase) Register(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if !types.ValidVideoID(videoID) {
		return fmt.Errorf("%w: %q is not a video id", types.ErrValidation, videoID)
	}
	log := u.d.Log.With("video_id", videoID)

	u.d.Progress.Update(videoID, progress.Update{
		Stage:    progress.Ptr(progress.StageDownload),
		Progress: progress.Ptr(20.0),
		Message:  progress.Ptr("Fetching video metadata..."),
	})

	meta, err := u.d.Downloader.Metadata(ctx, videoID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(meta.ChannelName) == "" {
		return fmt.Errorf("%w: could not determine channel name for %s", types.ErrValidation, videoID)
	}

	existing, err := u.d.Store.GetVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Warn("video already exists, reprocessing")
		return u.d.Store.SetVideoStatus(ctx, videoID, types.VideoPending, "")
	}

	if err := u.d.Store.InsertVideo(ctx, &types.Video{
		ID:          videoID,
		Title:       meta.Title,
		ChannelName: meta.ChannelName,
		ChannelID:   meta.ChannelID,
		PublishedAt: meta.PublishedAt,
		Context:     meta.Description,
		Status:      types.VideoPending,
	}); err != nil {
		return err
	}
	log.Info("video added")
	return nil
}

// Submit registers videoID and runs the full pipeline on it.
func (u Usecase) Submit(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if err := u.Register(ctx, videoID); err != nil {
		u.d.Progress.Clear(videoID)
		return err
	}
	return u.Process(ctx, videoID)
}
