package highlights

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/clipline/internal/types"
)

const (
	summaryWindowSeconds = 20.0
	MaxSummaryChars      = 260
)

// Window returns transcript entries overlapping [start-20s, end+20s].
func Window(tr types.Transcript, start, end float64) types.Transcript {
	var out types.Transcript
	for _, e := range tr {
		es, err1 := types.ParseTimestamp(e.Start)
		ee, err2 := types.ParseTimestamp(e.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if es < end+summaryWindowSeconds && ee > start-summaryWindowSeconds {
			out = append(out, e)
		}
	}
	return out
}

type SummaryRequest struct {
	Transcript types.Transcript
	Title      string
	Current    string
	StartTime  float64
	EndTime    float64
}

func BuildSummaryPrompt(r SummaryRequest) string {
	var b strings.Builder
	b.WriteString("You are an expert content analyst. Generate a new, engaging summary for this video clip.\n\n")
	b.WriteString("CLIP DETAILS:\n")
	fmt.Fprintf(&b, "Title: %q\n", r.Title)
	fmt.Fprintf(&b, "Duration: %ss to %ss (%ds long)\n\n",
		formatSeconds(r.StartTime), formatSeconds(r.EndTime), int(math.Round(r.EndTime-r.StartTime)))
	b.WriteString("CURRENT SUMMARY:\n")
	fmt.Fprintf(&b, "%q\n\n", r.Current)
	b.WriteString("TRANSCRIPT SEGMENT:\n")
	b.WriteString(transcriptLines(Window(r.Transcript, r.StartTime, r.EndTime)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, `Generate a NEW, different summary that:
- Is engaging and entices viewers to watch the clip
- Captures the key moments and value of this segment
- Is different from the current summary
- Uses exciting, clickable language
- MAXIMUM is %d characters
- You are posting to X
- It should not be cringe or too long
- Do not use too many emojis or hashtags
- It should sound wise

Respond with ONLY the new summary text, no additional formatting or explanation.`, MaxSummaryChars)
	return b.String()
}

// CleanSummary trims whitespace and surrounding quotes and caps the length.
func CleanSummary(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"“”")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty summary", types.ErrResponseShape)
	}
	return truncate(s, MaxSummaryChars), nil
}
