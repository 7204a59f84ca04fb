package usecase

import (
	"context"
	"fmt"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

type VideoWithClips struct {
	types.Video
	Clips []types.Clip
}

type VideoStatus struct {
	VideoID  string
	Status   types.VideoStatus
	Error    string
	Produced []string
	Progress *progress.Descriptor // nil when no run is active
}

func (u Usecase) ListVideos(ctx context.Context) ([]VideoWithClips, error) {
	videos, err := u.d.Store.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]VideoWithClips, 0, len(videos))
	for _, v := range videos {
		clips, err := u.d.Store.ListClipsByVideo(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, VideoWithClips{Video: v, Clips: clips})
	}
	return out, nil
}

func (u Usecase) ListClips(ctx context.Context, f ports.ClipFilter) ([]types.Clip, error) {
	return u.d.Store.ListClips(ctx, f)
}

func (u Usecase) Status(ctx context.Context, videoID string) (VideoStatus, error) {
	v, err := u.d.Store.GetVideo(ctx, videoID)
	if err != nil {
		return VideoStatus{}, err
	}
	if v == nil {
		return VideoStatus{}, fmt.Errorf("%w: video %s", types.ErrNotFound, videoID)
	}
	clips, err := u.d.Store.ListClipsByVideo(ctx, videoID)
	if err != nil {
		return VideoStatus{}, err
	}
	st := VideoStatus{VideoID: v.ID, Status: v.Status, Error: v.ErrorMessage}
	for _, c := range clips {
		if c.Status == types.ClipProduced || c.Status == types.ClipPosted {
			st.Produced = append(st.Produced, c.ID)
		}
	}
	if d, ok := u.d.Progress.Get(videoID); ok {
		st.Progress = &d
	}
	return st, nil
}

// ClipsByID loads clips in the given order; unknown IDs are an error.
func (u Usecase) ClipsByID(ctx context.Context, ids []string) ([]types.Clip, error) {
	out := make([]types.Clip, 0, len(ids))
	for _, id := range ids {
		c, err := u.d.Store.GetClip(ctx, id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: clip %s", types.ErrNotFound, id)
		}
		out = append(out, *c)
	}
	return out, nil
}

// DeleteClip removes the clip row and its media file.
func (u Usecase) DeleteClip(ctx context.Context, clipID string) error {
	if err := u.d.Store.DeleteClip(ctx, clipID); err != nil {
		return err
	}
	if err := removeIfExists(u.ClipPath(clipID)); err != nil {
		return fmt.Errorf("remove clip media: %w", err)
	}
	u.d.Log.Info("clip deleted", "clip_id", clipID)
	return nil
}

// DeleteVideo removes the video, its clips and every local file they own.
func (u Usecase) DeleteVideo(ctx context.Context, videoID string) error {
	clips, err := u.d.Store.ListClipsByVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if err := u.d.Store.DeleteVideo(ctx, videoID); err != nil {
		return err
	}
	for _, c := range clips {
		if err := removeIfExists(u.ClipPath(c.ID)); err != nil {
			u.d.Log.Warn("remove clip media failed", "clip_id", c.ID, "error", err)
		}
	}
	if err := removeIfExists(u.audioPath(videoID)); err != nil {
		u.d.Log.Warn("remove cached audio failed", "video_id", videoID, "error", err)
	}
	u.d.Progress.Clear(videoID)
	u.d.Log.Info("video deleted", "video_id", videoID, "clips", len(clips))
	return nil
}
