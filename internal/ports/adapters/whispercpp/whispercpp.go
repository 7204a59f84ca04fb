package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

type Adapter struct {
	run      ports.Runner
	bin      string
	model    string
	language string
}

func New(run ports.Runner, binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "en"
	}
	return &Adapter{run: run, bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}
	// one scratch dir per call; concurrent transcriptions share cacheDir
	work, err := os.MkdirTemp(cacheDir, "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp scratch dir: %w", err)
	}
	defer os.RemoveAll(work)

	outPrefix := filepath.Join(work, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-oj",
		"-of", outPrefix,
	}
	if err := a.run.Run(ctx, a.bin, args...); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w", err)
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper.cpp output: %w", err)
	}
	return decodeTranscript(jb)
}

func decodeTranscript(jb []byte) (types.Transcript, error) {
	var raw struct {
		Transcription []struct {
			Timestamps struct {
				From string `json:"from"`
				To   string `json:"to"`
			} `json:"timestamps"`
			Text string `json:"text"`
		} `json:"transcription"`
	}
	if err := json.Unmarshal(jb, &raw); err != nil {
		return nil, fmt.Errorf("decode whisper.cpp json: %w", err)
	}
	tr := make(types.Transcript, 0, len(raw.Transcription))
	for _, seg := range raw.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		tr = append(tr, types.TranscriptEntry{
			Text:  text,
			Start: seg.Timestamps.From,
			End:   seg.Timestamps.To,
		})
	}
	return tr, nil
}
