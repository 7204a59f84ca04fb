package whispercpp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type jsonWritingRunner struct {
	body string
	args []string
}

func (r *jsonWritingRunner) Run(_ context.Context, _ string, args ...string) error {
	r.args = args
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-of" {
			return os.WriteFile(args[i+1]+".json", []byte(r.body), 0o644)
		}
	}
	return nil
}

func (r *jsonWritingRunner) Output(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return nil, r.Run(ctx, bin, args...)
}

func TestTranscribe_DecodesSegments(t *testing.T) {
	run := &jsonWritingRunner{body: `{"transcription":[
		{"timestamps":{"from":"00:00:00,000","to":"00:00:02,000"},"text":" hello world"},
		{"timestamps":{"from":"00:00:02,000","to":"00:00:03,000"},"text":"   "},
		{"timestamps":{"from":"00:00:03,000","to":"00:00:05,500"},"text":" again"}
	]}`}
	cache := filepath.Join(t.TempDir(), "cache")

	tr, err := New(run, "whisper-cli", "model.bin", "").Transcribe(context.Background(), "in.wav", cache)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(tr) != 2 {
		t.Fatalf("expected 2 entries (blank dropped), got %d", len(tr))
	}
	if tr[0].Text != "hello world" || tr[0].Start != "00:00:00,000" || tr[0].End != "00:00:02,000" {
		t.Fatalf("unexpected first entry: %+v", tr[0])
	}
	entries, err := os.ReadDir(cache)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch output cleaned up, found %d entries", len(entries))
	}
}

// wavEchoRunner writes a transcript naming the input wav, pausing so that
// concurrent calls overlap.
type wavEchoRunner struct {
	delay map[string]time.Duration
}

func (r wavEchoRunner) Run(_ context.Context, _ string, args ...string) error {
	var wav, prefix string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-f":
			wav = args[i+1]
		case "-of":
			prefix = args[i+1]
		}
	}
	body := fmt.Sprintf(`{"transcription":[{"timestamps":{"from":"00:00:00,000","to":"00:00:01,000"},"text":"from %s"}]}`, wav)
	if err := os.WriteFile(prefix+".json", []byte(body), 0o644); err != nil {
		return err
	}
	time.Sleep(r.delay[wav])
	return nil
}

func (r wavEchoRunner) Output(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return nil, r.Run(ctx, bin, args...)
}

func TestTranscribe_ConcurrentCallsShareCacheDir(t *testing.T) {
	cache := t.TempDir()
	a := New(wavEchoRunner{delay: map[string]time.Duration{"a.wav": 50 * time.Millisecond}}, "whisper-cli", "model.bin", "")

	var wg sync.WaitGroup
	got := map[string]string{}
	errs := map[string]error{}
	var mu sync.Mutex
	for _, wav := range []string{"a.wav", "b.wav"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := a.Transcribe(context.Background(), wav, cache)
			mu.Lock()
			defer mu.Unlock()
			errs[wav] = err
			if err == nil && len(tr) == 1 {
				got[wav] = tr[0].Text
			}
		}()
	}
	wg.Wait()

	for _, wav := range []string{"a.wav", "b.wav"} {
		if errs[wav] != nil {
			t.Fatalf("%s: %v", wav, errs[wav])
		}
		if want := "from " + wav; got[wav] != want {
			t.Fatalf("%s transcript = %q, want %q", wav, got[wav], want)
		}
	}
}

func TestDecodeTranscript_Invalid(t *testing.T) {
	if _, err := decodeTranscript([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}
