package ytdlp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/clipline/internal/types"
)

type fakeRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) error {
	f.calls = append(f.calls, append([]string{bin}, args...))
	return f.err
}

func (f *fakeRunner) Output(_ context.Context, bin string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{bin}, args...))
	return f.output, f.err
}

func TestDownloadRange_Args(t *testing.T) {
	run := &fakeRunner{}
	a := New(run, "/opt/yt-dlp")
	out := filepath.Join(t.TempDir(), "clips", "c1.mp4")

	if err := a.DownloadRange(context.Background(), "kOyIjt6FUrw", 12, 72.5, out); err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(run.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(run.calls))
	}
	got := strings.Join(run.calls[0], " ")
	for _, want := range []string{
		"/opt/yt-dlp -S proto:https",
		"--download-sections *12-72.5",
		"--merge-output-format mp4",
		"--force-keyframes-at-cuts",
		"-o " + out,
		"https://www.youtube.com/watch?v=kOyIjt6FUrw",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestDownloadAudio_UsesExtTemplate(t *testing.T) {
	run := &fakeRunner{}
	out := filepath.Join(t.TempDir(), "kOyIjt6FUrw.wav")
	if err := New(run, "").DownloadAudio(context.Background(), "kOyIjt6FUrw", out); err != nil {
		t.Fatalf("download audio: %v", err)
	}
	got := strings.Join(run.calls[0], " ")
	if !strings.HasPrefix(got, "yt-dlp --extract-audio --audio-format wav") {
		t.Fatalf("unexpected args: %q", got)
	}
	if !strings.Contains(got, strings.TrimSuffix(out, ".wav")+".%(ext)s") {
		t.Fatalf("expected ext template in %q", got)
	}
}

func TestDownload_PropagatesRunnerError(t *testing.T) {
	run := &fakeRunner{err: errors.New("yt-dlp exited with code 1")}
	err := New(run, "").DownloadRange(context.Background(), "kOyIjt6FUrw", 0, 40, filepath.Join(t.TempDir(), "x.mp4"))
	if err == nil || !strings.Contains(err.Error(), "code 1") {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestParseMetadata(t *testing.T) {
	b := []byte(`{"_type":"video","id":"kOyIjt6FUrw","title":"T","channel":"Chan","channel_id":"UC1","upload_date":"20240131","description":"d","duration":321.5}`)
	m, err := parseMetadata(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.ChannelName != "Chan" || m.ChannelID != "UC1" || m.Title != "T" || m.Duration != 321.5 {
		t.Fatalf("unexpected metadata: %+v", m)
	}
	if !m.PublishedAt.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published at: %v", m.PublishedAt)
	}
}

func TestParseMetadata_RejectsPlaylist(t *testing.T) {
	_, err := parseMetadata([]byte(`{"_type":"playlist","id":"x"}`))
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
