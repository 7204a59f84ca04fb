package cli

import (
	"fmt"
	"strings"

	"github.com/forPelevin/clipline/internal/types"
)

type clipSpec struct {
	id         string
	start, end float64
	hasRange   bool
}

// parseClipSpecs reads "clipID" or "clipID:start-end" arguments. Clip IDs
// never contain a colon, so everything after the first one is the range.
func parseClipSpecs(args []string) ([]clipSpec, error) {
	seen := make(map[string]bool, len(args))
	out := make([]clipSpec, 0, len(args))
	for _, arg := range args {
		id, rng, hasRange := strings.Cut(strings.TrimSpace(arg), ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty clip id in %q", types.ErrValidation, arg)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: clip %s listed twice", types.ErrValidation, id)
		}
		seen[id] = true

		s := clipSpec{id: id, hasRange: hasRange}
		if hasRange {
			from, to, ok := strings.Cut(rng, "-")
			if !ok {
				return nil, fmt.Errorf("%w: range %q must look like start-end", types.ErrValidation, rng)
			}
			var err error
			if s.start, err = types.ParseTimestamp(from); err != nil {
				return nil, err
			}
			if s.end, err = types.ParseTimestamp(to); err != nil {
				return nil, err
			}
			if s.start >= s.end {
				return nil, fmt.Errorf("%w: clip %s start must be before end", types.ErrValidation, id)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// resolveTimings fills ranges that were not given on the command line from
// the stored clips.
func resolveTimings(specs []clipSpec, stored []types.Clip) []types.ClipTiming {
	byID := make(map[string]types.Clip, len(stored))
	for _, c := range stored {
		byID[c.ID] = c
	}
	out := make([]types.ClipTiming, 0, len(specs))
	for _, s := range specs {
		t := types.ClipTiming{ID: s.id, StartTime: s.start, EndTime: s.end}
		if !s.hasRange {
			c := byID[s.id]
			t.StartTime, t.EndTime = c.StartTime, c.EndTime
		}
		out = append(out, t)
	}
	return out
}
