package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/clipline/internal/domain/highlights"
	"github.com/forPelevin/clipline/internal/types"
)

// RegenerateSummary writes a fresh summary for clipID from the transcript
// around it and returns the new text.
func (u Usecase) RegenerateSummary(ctx context.Context, clipID string) (string, error) {
	clip, err := u.d.Store.GetClip(ctx, clipID)
	if err != nil {
		return "", err
	}
	if clip == nil {
		return "", fmt.Errorf("%w: clip %s", types.ErrNotFound, clipID)
	}
	log := u.d.Log.With("video_id", clip.VideoID, "clip_id", clip.ID)

	v, err := u.d.Store.GetVideo(ctx, clip.VideoID)
	if err != nil {
		return "", err
	}
	if v == nil || len(v.Transcript) == 0 {
		return "", fmt.Errorf("%w: no transcript for video %s", types.ErrValidation, clip.VideoID)
	}

	prompt := highlights.BuildSummaryPrompt(highlights.SummaryRequest{
		Transcript: v.Transcript,
		Title:      clip.Title,
		Current:    clip.Summary,
		StartTime:  clip.StartTime,
		EndTime:    clip.EndTime,
	})
	resp, err := u.generate(ctx, log, prompt)
	if err != nil {
		return "", fmt.Errorf("regenerate summary %s: %w", clipID, err)
	}
	summary, err := highlights.CleanSummary(resp)
	if err != nil {
		return "", err
	}
	if err := u.d.Store.SetClipSummary(ctx, clipID, summary); err != nil {
		return "", err
	}
	log.Info("summary regenerated")
	return summary, nil
}

// UpdateSummary stores a user-written summary for clipID.
func (u Usecase) UpdateSummary(ctx context.Context, clipID, summary string) error {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("%w: summary is empty", types.ErrValidation)
	}
	if n := utf8.RuneCountInString(summary); n > highlights.MaxSummaryChars {
		return fmt.Errorf("%w: summary is %d characters, limit is %d", types.ErrValidation, n, highlights.MaxSummaryChars)
	}
	if err := u.d.Store.SetClipSummary(ctx, clipID, summary); err != nil {
		return err
	}
	u.d.Log.Info("summary updated", "clip_id", clipID)
	return nil
}
