package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/forPelevin/clipline/internal/domain/progress"
	"github.com/forPelevin/clipline/internal/types"
)

type ClipFailure struct {
	ClipID string
	Err    error
}

type BatchResult struct {
	Succeeded []string
	Failed    []ClipFailure
}

// ProduceBatch stores the edited ranges in one transaction, then produces
// every clip concurrently and waits for all of them. A failing clip does not
// cancel the others. The error return is reserved for failures before fan-out.
func (u Usecase) ProduceBatch(ctx context.Context, timings []types.ClipTiming) (BatchResult, error) {
	if len(timings) == 0 {
		return BatchResult{}, nil
	}
	seen := make(map[string]bool, len(timings))
	for _, t := range timings {
		if t.ID == "" || t.StartTime < 0 || t.StartTime >= t.EndTime {
			return BatchResult{}, fmt.Errorf("%w: clip %q range %.3f-%.3f", types.ErrValidation, t.ID, t.StartTime, t.EndTime)
		}
		if seen[t.ID] {
			return BatchResult{}, fmt.Errorf("%w: duplicate clip %q in batch", types.ErrValidation, t.ID)
		}
		seen[t.ID] = true
	}

	clips, err := u.d.Store.UpdateClipTimings(ctx, timings)
	if err != nil {
		return BatchResult{}, err
	}

	owned := u.trackBatch(clips)
	defer func() {
		for _, videoID := range owned {
			u.d.Progress.Update(videoID, progress.Update{
				Stage:    progress.Ptr(progress.StageComplete),
				Progress: progress.Ptr(100.0),
				Message:  progress.Ptr("Production complete"),
			})
			u.d.Progress.Clear(videoID)
		}
	}()

	errs := make([]error, len(clips))
	var wg sync.WaitGroup
	for i, c := range clips {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = u.Produce(ctx, c)
		}()
	}
	wg.Wait()

	var res BatchResult
	for i, c := range clips {
		if errs[i] != nil {
			res.Failed = append(res.Failed, ClipFailure{ClipID: c.ID, Err: errs[i]})
			continue
		}
		res.Succeeded = append(res.Succeeded, c.ID)
	}
	u.d.Log.Info("batch produced", "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	return res, nil
}

// trackBatch opens a production entry for every video that has none yet and
// returns those video IDs; entries owned by a running Process are left alone.
func (u Usecase) trackBatch(clips []types.Clip) []string {
	perVideo := map[string][]progress.ClipProgress{}
	var order []string
	for _, c := range clips {
		if _, ok := perVideo[c.VideoID]; !ok {
			order = append(order, c.VideoID)
		}
		perVideo[c.VideoID] = append(perVideo[c.VideoID], progress.ClipProgress{ClipID: c.ID})
	}

	var owned []string
	for _, videoID := range order {
		if u.d.Progress.Has(videoID) {
			continue
		}
		owned = append(owned, videoID)
		u.d.Progress.Update(videoID, progress.Update{
			Stage:    progress.Ptr(progress.StageProduction),
			Progress: progress.Ptr(0.0),
			Message:  progress.Ptr(fmt.Sprintf("Producing %d clips", len(perVideo[videoID]))),
			Clips:    perVideo[videoID],
		})
	}
	return owned
}
