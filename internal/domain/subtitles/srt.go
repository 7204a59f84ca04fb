package subtitles

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/forPelevin/clipline/internal/types"
)

// MaxWordsPerCaption is the chunk size used for short-form captions.
const MaxWordsPerCaption = 5

type Block struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Chunk groups each utterance's words into blocks of at most maxWords. A
// block spans its first word's start to its last word's end. Blocks without
// text are skipped and do not consume an index.
func Chunk(resp types.STTResponse, maxWords int) []Block {
	if maxWords <= 0 {
		maxWords = MaxWordsPerCaption
	}
	var out []Block
	for _, u := range resp.Results.Utterances {
		for i := 0; i < len(u.Words); i += maxWords {
			chunk := u.Words[i:min(i+maxWords, len(u.Words))]
			parts := make([]string, 0, len(chunk))
			for _, w := range chunk {
				if t := w.Text(); t != "" {
					parts = append(parts, t)
				}
			}
			text := strings.Join(parts, " ")
			if text == "" {
				continue
			}
			out = append(out, Block{
				Index: len(out) + 1,
				Start: chunk[0].Start,
				End:   chunk[len(chunk)-1].End,
				Text:  text,
			})
		}
	}
	return out
}

// RenderSRT formats blocks as SubRip. An empty slice renders "".
func RenderSRT(blocks []Block) string {
	var b strings.Builder
	for _, bl := range blocks {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", bl.Index, FormatTimestamp(bl.Start), FormatTimestamp(bl.End), bl.Text)
	}
	return b.String()
}

// BuildSRT chunks resp and renders it. It returns "" when no utterance
// produced any text.
func BuildSRT(resp types.STTResponse, maxWords int) (string, int) {
	blocks := Chunk(resp, maxWords)
	return RenderSRT(blocks), len(blocks)
}

// FormatTimestamp renders seconds as zero-padded HH:MM:SS,mmm.
func FormatTimestamp(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	d := time.Duration(math.Round(sec*1000)) * time.Millisecond
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
