package highlights

import "github.com/forPelevin/clipline/internal/types"

const (
	MinClipSeconds = 30.0
	MaxClipSeconds = 250.0
)

// ValidRange reports whether start < end and the span is within clip bounds.
func ValidRange(start, end float64) bool {
	d := end - start
	return start >= 0 && start < end && d >= MinClipSeconds && d <= MaxClipSeconds
}

// Accept keeps proposals with a valid range that do not overlap any existing
// clip. Invalid proposals are dropped, never adjusted.
func Accept(proposals []types.ClipProposal, existing []types.ExistingClip) []types.ClipProposal {
	out := make([]types.ClipProposal, 0, len(proposals))
	for _, p := range proposals {
		if !ValidRange(p.StartTime, p.EndTime) {
			continue
		}
		if !isDistinct(existing, p.StartTime, p.EndTime) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isDistinct(existing []types.ExistingClip, st, en float64) bool {
	for _, e := range existing {
		if st < e.EndTime && en > e.StartTime {
			return false
		}
	}
	return true
}
