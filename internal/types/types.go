package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrResponseShape = errors.New("unparseable model response")
)

type VideoStatus string

const (
	VideoPending     VideoStatus = "pending"
	VideoTranscribed VideoStatus = "transcribed"
	VideoError       VideoStatus = "error"
)

type ClipStatus string

const (
	ClipPending  ClipStatus = "pending"
	ClipProduced ClipStatus = "produced"
	ClipPosted   ClipStatus = "posted"
	ClipError    ClipStatus = "error"
)

// TranscriptEntry is one timed line of a long-form transcript. Start and End
// keep the whisper.cpp "HH:MM:SS,mmm" form.
type TranscriptEntry struct {
	Text  string `json:"text"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Transcript []TranscriptEntry

// Duration returns the end offset of the last entry in seconds.
func (t Transcript) Duration() float64 {
	if len(t) == 0 {
		return 0
	}
	sec, err := ParseTimestamp(t[len(t)-1].End)
	if err != nil {
		return 0
	}
	return sec
}

type Video struct {
	ID           string
	Title        string
	ChannelName  string
	ChannelID    string
	PublishedAt  time.Time
	Context      string
	Transcript   Transcript // nil until transcribed
	Status       VideoStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Clip struct {
	ID           string
	VideoID      string
	StartTime    float64
	EndTime      float64
	Reason       string
	Title        string
	Summary      string
	Status       ClipStatus
	SRT          string
	STTResponse  string
	ErrorMessage string
	PostURL      string
	PostID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c Clip) Duration() float64 { return c.EndTime - c.StartTime }

// ClipProposal is one validated element of a model response.
type ClipProposal struct {
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	ProposedTitle string  `json:"proposedTitle"`
	LLMReason     string  `json:"llmReason"`
	Summary       string  `json:"summary"`
}

// ExistingClip is a range the model is asked to avoid.
type ExistingClip struct {
	ID            string
	StartTime     float64
	EndTime       float64
	ProposedTitle string
	Summary       string
}

// ClipTiming is an edited range submitted for production.
type ClipTiming struct {
	ID        string
	StartTime float64
	EndTime   float64
}

type VideoMetadata struct {
	ID          string
	Title       string
	ChannelID   string
	ChannelName string
	Description string
	PublishedAt time.Time
	Duration    float64
}

// STTResponse mirrors the parts of a Deepgram prerecorded response used for captions.
type STTResponse struct {
	Metadata STTMetadata `json:"metadata"`
	Results  STTResults  `json:"results"`
}

type STTMetadata struct {
	RequestID string  `json:"request_id"`
	Duration  float64 `json:"duration"`
	Channels  int     `json:"channels"`
}

type STTResults struct {
	Utterances []Utterance `json:"utterances"`
}

type Utterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Transcript string  `json:"transcript"`
	Words      []Word  `json:"words"`
}

type Word struct {
	Word           string  `json:"word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	PunctuatedWord string  `json:"punctuated_word,omitempty"`
}

// Text prefers the punctuated form when the STT provider returned one.
func (w Word) Text() string {
	if s := strings.TrimSpace(w.PunctuatedWord); s != "" {
		return s
	}
	return strings.TrimSpace(w.Word)
}

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func ValidVideoID(id string) bool { return videoIDRE.MatchString(id) }

func VideoURL(id string) string { return "https://www.youtube.com/watch?v=" + id }

// ParseTimestamp converts "H:MM:SS,mmm", "H:MM:SS.mmm", "MM:SS" or plain seconds into seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrValidation)
	}
	parts := strings.Split(ts, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: timestamp %q", ErrValidation, ts)
	}
	var total float64
	for i, p := range parts {
		if i == len(parts)-1 {
			p = strings.Replace(p, ",", ".", 1)
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: timestamp %q", ErrValidation, ts)
			}
			total = total*60 + v
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: timestamp %q", ErrValidation, ts)
		}
		total = total*60 + float64(v)
	}
	return total, nil
}
