package highlights

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/forPelevin/clipline/internal/types"
)

var (
	reArray      = regexp.MustCompile(`\[[\s\S]*\]`)
	reFencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\[[\\s\\S]*?\\])\\s*```")
)

// ExtractArray returns the first bracket-delimited span of s, or the array
// inside a fenced code block.
func ExtractArray(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", fmt.Errorf("%w: empty response", types.ErrResponseShape)
	}
	if m := reArray.FindString(t); m != "" {
		return m, nil
	}
	if m := reFencedJSON.FindStringSubmatch(t); len(m) == 2 {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: no JSON array in %q", types.ErrResponseShape, truncate(t, 200))
}

// ParseProposals decodes a model response. A response without a JSON array is
// an error; elements missing a field or carrying a field of the wrong type are
// dropped.
func ParseProposals(response string) ([]types.ClipProposal, error) {
	raw, err := ExtractArray(response)
	if err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrResponseShape, err)
	}
	out := make([]types.ClipProposal, 0, len(elems))
	for _, e := range elems {
		p, ok := decodeProposal(e)
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func decodeProposal(raw json.RawMessage) (types.ClipProposal, bool) {
	var fields struct {
		StartTime     *float64 `json:"startTime"`
		EndTime       *float64 `json:"endTime"`
		ProposedTitle *string  `json:"proposedTitle"`
		LLMReason     *string  `json:"llmReason"`
		Summary       *string  `json:"summary"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.ClipProposal{}, false
	}
	if fields.StartTime == nil || fields.EndTime == nil || fields.ProposedTitle == nil ||
		fields.LLMReason == nil || fields.Summary == nil {
		return types.ClipProposal{}, false
	}
	return types.ClipProposal{
		StartTime:     *fields.StartTime,
		EndTime:       *fields.EndTime,
		ProposedTitle: *fields.ProposedTitle,
		LLMReason:     *fields.LLMReason,
		Summary:       *fields.Summary,
	}, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
