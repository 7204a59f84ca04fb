package highlights

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/clipline/internal/types"
)

const (
	PromptDefault     = "default"
	PromptFunny       = "funny"
	PromptEducational = "educational"
	PromptCustom      = "custom"
)

var lookForTemplates = map[string]string{
	PromptDefault: `- Emotional peaks (excitement, revelation, dramatic moments)
- Educational insights or "aha" moments
- Controversial or thought-provoking statements
- Memorable quotes or soundbites
- Story climaxes or plot twists`,
	PromptFunny: `- Jokes and punchlines
- Ironic or absurd moments
- Funny reactions or interactions
- Unexpected or silly situations
- Witty commentary`,
	PromptEducational: `- Key learning points
- Clear explanations of complex topics
- Actionable advice or tips
- Demonstrations or tutorials
- Surprising facts or data points`,
}

// PromptTypes lists the accepted prompt types in display order.
func PromptTypes() []string {
	return []string{PromptDefault, PromptFunny, PromptEducational, PromptCustom}
}

type Request struct {
	Transcript types.Transcript
	PromptType string
	LookFor    string // used when PromptType is "custom"
	Context    string
	Existing   []types.ExistingClip
}

// LookFor resolves the selection criteria. Unknown types use the default
// template; "custom" requires non-empty text.
func LookFor(promptType, custom string) (string, error) {
	if promptType == PromptCustom {
		custom = strings.TrimSpace(custom)
		if custom == "" {
			return "", fmt.Errorf("%w: custom prompt requires look-for text", types.ErrValidation)
		}
		return custom, nil
	}
	if t, ok := lookForTemplates[promptType]; ok {
		return t, nil
	}
	return lookForTemplates[PromptDefault], nil
}

// BuildPrompt renders the clip-selection prompt. Each transcript line is
// prefixed with its start offset in seconds.
func BuildPrompt(r Request) (string, error) {
	if len(r.Transcript) == 0 {
		return "", fmt.Errorf("%w: transcript is empty", types.ErrValidation)
	}
	lookFor, err := LookFor(r.PromptType, r.LookFor)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an expert video content analyst specializing in identifying the most engaging and viral-worthy moments in video content.\n")
	b.WriteString("Analyze this video transcript and identify 5 of the most interesting, engaging, or entertaining segments that would make great short clips.\n\n")
	b.WriteString("The clips must respect these constraints:\n")
	b.WriteString("- MINIMAL DURATION: 50 SECONDS.\n")
	b.WriteString("- MAXIMAL DURATION: 180 SECONDS.\n")
	b.WriteString("- The clips should not overlap with each other.")
	if len(r.Existing) > 0 {
		b.WriteString("\n- AVOID the existing clips listed below - find NEW and DIFFERENT segments.")
	}
	b.WriteString("\n\nLook for the following types of content:\n")
	b.WriteString(lookFor)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Video Duration: %s seconds\n", formatSeconds(r.Transcript.Duration()))
	fmt.Fprintf(&b, "Video Context: %s", strings.TrimSpace(r.Context))
	if len(r.Existing) > 0 {
		b.WriteString("\n\n")
		b.WriteString(avoidBlock(r.Existing))
	}

	b.WriteString("\n\nTranscript:\n----------\n")
	b.WriteString(transcriptLines(r.Transcript))
	b.WriteString("\n----------\n\n")
	b.WriteString(responseContract)
	return b.String(), nil
}

const responseContract = `Respond with a JSON array of clips, and nothing else. Your response will be parsed by a machine as JSON. Do not include any text before or after the array, no code blocks, and no explanations.

Each clip in the JSON array must have the following structure:
- startTime: number (seconds from start of the video)
- endTime: number (seconds from start of the video)
- proposedTitle: string (engaging 5-8 word title)
- llmReason: string (why this moment is interesting/engaging)
- summary: string (a summary which should ENTICE the viewer to watch the clip)

Example format:
[
  {
    "startTime": 45,
    "endTime": 150,
    "proposedTitle": "Mind-blowing Revelation About AI",
    "llmReason": "Contains a surprising insight that challenges common assumptions about AI development",
    "summary": "A summary of the clip which will be used as a description to the clip"
  }
]

Ensure you only respond with the JSON array.`

func avoidBlock(existing []types.ExistingClip) string {
	var b strings.Builder
	b.WriteString("EXISTING CLIPS TO AVOID:\n")
	b.WriteString("The following segments have already been identified as clips. Please avoid these time ranges and find DIFFERENT interesting moments:\n")
	for _, c := range existing {
		fmt.Fprintf(&b, "- %s to %s: %q", formatSeconds(c.StartTime), formatSeconds(c.EndTime), c.ProposedTitle)
		if s := strings.TrimSpace(c.Summary); s != "" {
			fmt.Fprintf(&b, " (%s)", s)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nFocus on finding clips in different parts of the video that don't overlap with these existing segments.")
	return b.String()
}

func transcriptLines(tr types.Transcript) string {
	lines := make([]string, 0, len(tr))
	for _, e := range tr {
		text := strings.TrimSpace(e.Text)
		sec, err := types.ParseTimestamp(e.Start)
		if err != nil {
			// unparseable start: keep the raw value
			lines = append(lines, fmt.Sprintf("[%s] %s", strings.TrimSpace(e.Start), text))
			continue
		}
		lines = append(lines, fmt.Sprintf("[%ss] %s", formatSeconds(sec), text))
	}
	return strings.Join(lines, "\n")
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
