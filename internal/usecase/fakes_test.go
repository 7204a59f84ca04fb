package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

type memStore struct {
	mu     sync.Mutex
	videos map[string]types.Video
	clips  map[string]types.Clip
	order  []string
}

func newMemStore() *memStore {
	return &memStore{videos: map[string]types.Video{}, clips: map[string]types.Clip{}}
}

func (s *memStore) GetVideo(_ context.Context, id string) (*types.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *memStore) InsertVideo(_ context.Context, v *types.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[v.ID]; ok {
		return fmt.Errorf("duplicate video %s", v.ID)
	}
	s.videos[v.ID] = *v
	return nil
}

func (s *memStore) ListVideos(context.Context) ([]types.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Video
	for _, v := range s.videos {
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) SetVideoTranscript(_ context.Context, id string, tr types.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return types.ErrNotFound
	}
	v.Transcript, v.Status, v.ErrorMessage = tr, types.VideoTranscribed, ""
	s.videos[id] = v
	return nil
}

func (s *memStore) SetVideoStatus(_ context.Context, id string, st types.VideoStatus, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return fmt.Errorf("%w: video %s", types.ErrNotFound, id)
	}
	v.Status, v.ErrorMessage = st, msg
	s.videos[id] = v
	return nil
}

func (s *memStore) DeleteVideo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return types.ErrNotFound
	}
	delete(s.videos, id)
	for cid, c := range s.clips {
		if c.VideoID == id {
			delete(s.clips, cid)
		}
	}
	return nil
}

func (s *memStore) InsertClips(_ context.Context, clips []types.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range clips {
		s.clips[c.ID] = c
		s.order = append(s.order, c.ID)
	}
	return nil
}

func (s *memStore) GetClip(_ context.Context, id string) (*types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clips[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memStore) ListClipsByVideo(_ context.Context, videoID string) ([]types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Clip
	for _, id := range s.order {
		if c, ok := s.clips[id]; ok && c.VideoID == videoID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *memStore) ListClips(_ context.Context, f ports.ClipFilter) ([]types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Clip
	for _, id := range s.order {
		if c, ok := s.clips[id]; ok && (f.Status == "" || c.Status == f.Status) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateClipTimings(_ context.Context, timings []types.ClipTiming) ([]types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range timings {
		if _, ok := s.clips[t.ID]; !ok {
			return nil, fmt.Errorf("%w: clip %s", types.ErrNotFound, t.ID)
		}
	}
	out := make([]types.Clip, 0, len(timings))
	for _, t := range timings {
		c := s.clips[t.ID]
		c.StartTime, c.EndTime = t.StartTime, t.EndTime
		s.clips[t.ID] = c
		out = append(out, c)
	}
	return out, nil
}

func (s *memStore) updateClip(id string, fn func(*types.Clip)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clips[id]
	if !ok {
		return types.ErrNotFound
	}
	fn(&c)
	s.clips[id] = c
	return nil
}

func (s *memStore) SetClipSTTResponse(_ context.Context, id, raw string) error {
	return s.updateClip(id, func(c *types.Clip) { c.STTResponse = raw })
}

func (s *memStore) SetClipSRT(_ context.Context, id, srt string) error {
	return s.updateClip(id, func(c *types.Clip) { c.SRT = srt })
}

func (s *memStore) SetClipSummary(_ context.Context, id, summary string) error {
	return s.updateClip(id, func(c *types.Clip) { c.Summary = summary })
}

func (s *memStore) SetClipStatus(_ context.Context, id string, st types.ClipStatus, msg string) error {
	return s.updateClip(id, func(c *types.Clip) { c.Status, c.ErrorMessage = st, msg })
}

func (s *memStore) DeleteClip(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clips[id]; !ok {
		return types.ErrNotFound
	}
	delete(s.clips, id)
	return nil
}

func (s *memStore) clip(id string) types.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clips[id]
}

func (s *memStore) video(id string) types.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videos[id]
}

// procCounter stands in for external subprocesses.
type procCounter struct {
	mu    sync.Mutex
	calls []string
}

func (p *procCounter) record(name string) {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	p.mu.Unlock()
}

func (p *procCounter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeDownloader struct {
	procs     *procCounter
	meta      types.VideoMetadata
	metaErr   error
	audioErr  error
	failStart map[float64]bool // DownloadRange fails for these start times
}

func (f *fakeDownloader) Metadata(_ context.Context, id string) (types.VideoMetadata, error) {
	if f.metaErr != nil {
		return types.VideoMetadata{}, f.metaErr
	}
	m := f.meta
	m.ID = id
	return m, nil
}

func (f *fakeDownloader) DownloadAudio(_ context.Context, _ string, outWav string) error {
	f.procs.record("yt-dlp audio")
	if f.audioErr != nil {
		return f.audioErr
	}
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeDownloader) DownloadRange(_ context.Context, _ string, start, _ float64, out string) error {
	f.procs.record("yt-dlp range")
	if f.failStart[start] {
		// leave a partial file behind like an interrupted download would
		_ = os.WriteFile(out, []byte("partial"), 0o644)
		return errors.New("yt-dlp exited with code 1")
	}
	return os.WriteFile(out, []byte("mp4"), 0o644)
}

type fakeVideoTool struct {
	procs  *procCounter
	mu     sync.Mutex
	burned []string
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, in, outWav string) error {
	f.procs.record("ffmpeg extract")
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("extract input: %w", err)
	}
	return os.WriteFile(outWav, []byte("wav"), 0o644)
}

func (f *fakeVideoTool) BurnSubtitles(_ context.Context, videoPath, srtPath string) error {
	f.procs.record("ffmpeg burn")
	if _, err := os.Stat(srtPath); err != nil {
		return fmt.Errorf("srt missing: %w", err)
	}
	f.mu.Lock()
	f.burned = append(f.burned, videoPath)
	f.mu.Unlock()
	return nil
}

type fakeASR struct {
	tr  types.Transcript
	err error

	mu     sync.Mutex
	inputs []string
}

func (f *fakeASR) Transcribe(_ context.Context, wavPath, _ string) (types.Transcript, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, wavPath)
	f.mu.Unlock()
	return f.tr, f.err
}

type fakeSTT struct {
	resp types.STTResponse
}

func (f fakeSTT) Transcribe(context.Context, string) (types.STTResponse, []byte, error) {
	raw, _ := json.Marshal(f.resp)
	return f.resp, raw, nil
}

type fakeGenerator struct {
	mu     sync.Mutex
	models []string
	reply  func(model, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.models = append(f.models, model)
	f.mu.Unlock()
	return f.reply(model, prompt)
}

func sttWords(n int) types.STTResponse {
	words := make([]types.Word, n)
	for i := range words {
		words[i] = types.Word{Word: fmt.Sprintf("w%d", i), Start: float64(i), End: float64(i) + 0.5}
	}
	return types.STTResponse{Results: types.STTResults{Utterances: []types.Utterance{{Words: words}}}}
}

func proposalsJSON(ranges ...[2]float64) string {
	parts := make([]string, 0, len(ranges))
	for i, r := range ranges {
		parts = append(parts, fmt.Sprintf(`{"startTime":%v,"endTime":%v,"proposedTitle":"Clip %d","llmReason":"reason","summary":"summary"}`, r[0], r[1], i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
