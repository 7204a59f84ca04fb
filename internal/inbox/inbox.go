// Package inbox turns files dropped into a directory into video submissions.
package inbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/forPelevin/clipline/internal/types"
)

// Submit is called once per dropped video ID.
type Submit func(ctx context.Context, videoID string) error

type Watcher struct {
	dir    string
	submit Submit
	log    *slog.Logger
	settle time.Duration

	fs *fsnotify.Watcher
	wg sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]bool
}

func New(dir string, submit Submit, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox %s: %w", dir, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		submit:   submit,
		log:      log,
		settle:   500 * time.Millisecond,
		fs:       fw,
		inflight: map[string]bool{},
	}, nil
}

// Run handles files already in the inbox, then every newly created one, until
// ctx is done. In-flight submissions are waited for before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	w.log.Info("inbox watcher started", "dir", w.dir)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.dispatch(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.log.Info("inbox watcher stopped")
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if ev.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if st, err := os.Stat(ev.Name); err != nil || st.IsDir() {
				continue
			}
			w.dispatch(ctx, ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error("inbox watcher error", "error", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	if isHidden(path) {
		return
	}
	// a file created during the startup scan is reported twice
	w.mu.Lock()
	if w.inflight[path] {
		w.mu.Unlock()
		return
	}
	w.inflight[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()
		// let the writer finish before the file is read
		select {
		case <-time.After(w.settle):
		case <-ctx.Done():
			return
		}
		if err := w.Handle(ctx, path); err != nil {
			w.log.Error("inbox submission failed", "file", path, "error", err)
		}
	}()
}

// Handle submits the video named by path and removes the file. Files that
// name no video are removed too so they are not retried forever.
func (w *Watcher) Handle(ctx context.Context, path string) error {
	id, err := VideoID(path)
	if rmErr := os.Remove(path); errors.Is(rmErr, os.ErrNotExist) {
		// already claimed by an earlier event for the same file
		return nil
	} else if rmErr != nil {
		w.log.Warn("remove inbox file failed", "file", path, "error", rmErr)
	}
	if err != nil {
		return err
	}
	w.log.Info("inbox submission", "video_id", id, "file", filepath.Base(path))
	return w.submit(ctx, id)
}

// VideoID reads a video ID from the file name (extension ignored) or, failing
// that, from the first non-empty line of the file. The line may be a bare ID
// or a watch URL.
func VideoID(path string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if types.ValidVideoID(stem) {
		return stem, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open inbox file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if id := parseLine(line); id != "" {
			return id, nil
		}
		break
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read inbox file: %w", err)
	}
	return "", fmt.Errorf("%w: %s does not name a video", types.ErrValidation, filepath.Base(path))
}

func parseLine(line string) string {
	if types.ValidVideoID(line) {
		return line
	}
	u, err := url.Parse(line)
	if err != nil || u.Host == "" {
		return ""
	}
	if id := u.Query().Get("v"); types.ValidVideoID(id) {
		return id
	}
	if id := strings.Trim(u.Path, "/"); strings.Contains(u.Host, "youtu.be") && types.ValidVideoID(id) {
		return id
	}
	return ""
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
