package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/forPelevin/clipline/internal/types"
)

func TestVideoID(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	tests := []struct {
		name, file, body, want string
		wantErr                bool
	}{
		{name: "file name", file: "kOyIjt6FUrw.txt", body: "", want: "kOyIjt6FUrw"},
		{name: "bare id line", file: "job1", body: "\n  dQw4w9WgXcQ \n", want: "dQw4w9WgXcQ"},
		{name: "watch url", file: "job2", body: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10s", want: "dQw4w9WgXcQ"},
		{name: "short url", file: "job3", body: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "garbage", file: "job4", body: "hello world", wantErr: true},
		{name: "empty", file: "job5", body: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VideoID(write(tt.file, tt.body))
			if tt.wantErr {
				if !errors.Is(err, types.ErrValidation) {
					t.Fatalf("expected validation error, got %q, %v", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("VideoID = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

type recorder struct {
	mu  sync.Mutex
	ids []string
	hit chan struct{}
}

func (r *recorder) submit(_ context.Context, id string) error {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	r.hit <- struct{}{}
	return nil
}

func TestHandleRemovesFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{hit: make(chan struct{}, 4)}
	w, err := New(dir, rec.submit, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.fs.Close()

	bad := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(bad, []byte("nothing here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Handle(context.Background(), bad); err == nil {
		t.Fatal("expected error for file without a video id")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("expected rejected file removed, stat err=%v", err)
	}
	if len(rec.ids) != 0 {
		t.Fatalf("unexpected submissions %v", rec.ids)
	}
}

func TestRunPicksUpExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "kOyIjt6FUrw"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{hit: make(chan struct{}, 4)}
	w, err := New(dir, rec.submit, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitHit := func() {
		select {
		case <-rec.hit:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for submission")
		}
	}
	waitHit()

	if err := os.WriteFile(filepath.Join(dir, "drop.txt"), []byte("dQw4w9WgXcQ\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitHit()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.ids) != 2 || rec.ids[0] != "kOyIjt6FUrw" || rec.ids[1] != "dQw4w9WgXcQ" {
		t.Fatalf("submissions = %v", rec.ids)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty inbox, found %d entries", len(entries))
	}
}
