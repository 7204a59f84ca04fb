package usecase

import (
	"context"
	"fmt"

	"github.com/forPelevin/clipline/internal/domain/highlights"
	"github.com/forPelevin/clipline/internal/types"
)

type AnalyzeInput struct {
	VideoID    string
	PromptType string
	LookFor    string
	Existing   []types.ExistingClip
}

// Analyze asks the model for new clip ranges and stores the accepted ones as
// pending clips. Zero accepted proposals is an empty result, not an error.
func (u Usecase) Analyze(ctx context.Context, in AnalyzeInput) ([]types.Clip, error) {
	log := u.d.Log.With("video_id", in.VideoID)

	v, err := u.d.Store.GetVideo(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: video %s", types.ErrNotFound, in.VideoID)
	}
	if len(v.Transcript) == 0 {
		return nil, fmt.Errorf("%w: video %s has no transcript", types.ErrValidation, in.VideoID)
	}

	prompt, err := highlights.BuildPrompt(highlights.Request{
		Transcript: v.Transcript,
		PromptType: in.PromptType,
		LookFor:    in.LookFor,
		Context:    v.Context,
		Existing:   in.Existing,
	})
	if err != nil {
		return nil, err
	}

	resp, err := u.generate(ctx, log, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", in.VideoID, err)
	}
	proposals, err := highlights.ParseProposals(resp)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", in.VideoID, err)
	}
	accepted := highlights.Accept(proposals, in.Existing)
	if len(accepted) == 0 {
		log.Warn("no valid clips in model response", "proposed", len(proposals))
		return []types.Clip{}, nil
	}

	clips := make([]types.Clip, 0, len(accepted))
	for _, p := range accepted {
		clips = append(clips, types.Clip{
			ID:        u.d.NewID(),
			VideoID:   in.VideoID,
			StartTime: p.StartTime,
			EndTime:   p.EndTime,
			Reason:    p.LLMReason,
			Title:     p.ProposedTitle,
			Summary:   p.Summary,
			Status:    types.ClipPending,
		})
	}
	if err := u.d.Store.InsertClips(ctx, clips); err != nil {
		return nil, err
	}
	if err := u.d.Store.SetVideoStatus(ctx, in.VideoID, types.VideoTranscribed, ""); err != nil {
		return nil, err
	}
	log.Info("video analyzed", "clips", len(clips), "proposed", len(proposals))
	return clips, nil
}

// AnalyzeVideo is the manual entry point: it transcribes if needed, then runs
// analysis. With avoidExisting the video's current clips are passed as ranges
// to avoid.
func (u Usecase) AnalyzeVideo(ctx context.Context, in AnalyzeInput, avoidExisting bool) ([]types.Clip, error) {
	if err := u.EnsureTranscript(ctx, in.VideoID); err != nil {
		return nil, err
	}
	if avoidExisting {
		existing, err := u.existingClips(ctx, in.VideoID)
		if err != nil {
			return nil, err
		}
		in.Existing = append(in.Existing, existing...)
	}
	return u.Analyze(ctx, in)
}

func (u Usecase) existingClips(ctx context.Context, videoID string) ([]types.ExistingClip, error) {
	clips, err := u.d.Store.ListClipsByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	out := make([]types.ExistingClip, 0, len(clips))
	for _, c := range clips {
		out = append(out, types.ExistingClip{
			ID:            c.ID,
			StartTime:     c.StartTime,
			EndTime:       c.EndTime,
			ProposedTitle: c.Title,
			Summary:       c.Summary,
		})
	}
	return out, nil
}
