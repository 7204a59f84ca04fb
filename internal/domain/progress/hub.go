package progress

import (
	"sync"
)

type Stage string

const (
	StageDownload      Stage = "download"
	StageTranscription Stage = "transcription"
	StageAnalysis      Stage = "analysis"
	StageProduction    Stage = "production"
	StageComplete      Stage = "complete"
)

const defaultMessage = "Starting..."

type ClipProgress struct {
	ClipID   string `json:"clipId"`
	Progress int    `json:"progress"`
}

// Descriptor is the last known state of one in-flight video.
type Descriptor struct {
	VideoID  string         `json:"videoId"`
	Stage    Stage          `json:"stage"`
	Progress float64        `json:"progress"`
	Message  string         `json:"message"`
	Clips    []ClipProgress `json:"clips,omitempty"`
}

func (d Descriptor) clone() Descriptor {
	if d.Clips != nil {
		d.Clips = append([]ClipProgress(nil), d.Clips...)
	}
	return d
}

// Update is a partial descriptor; nil fields keep their current value.
type Update struct {
	Stage    *Stage
	Progress *float64
	Message  *string
	Clips    []ClipProgress // nil keeps current
}

func Ptr[T any](v T) *T { return &v }

type Listener func(Descriptor)

type subscriber struct {
	id int
	fn Listener
}

// Hub maps video IDs to their latest Descriptor and fans merged updates out
// to listeners. It is safe for concurrent use. Listeners run on the updating
// goroutine and see updates in the order they were merged; a listener must
// not call back into Update or UpdateClip.
type Hub struct {
	emitMu  sync.Mutex // held across merge and delivery
	mu      sync.Mutex
	entries map[string]Descriptor
	byVideo map[string][]subscriber
	onAny   []subscriber
	onStage map[Stage][]subscriber
	nextID  int
}

func NewHub() *Hub {
	return &Hub{
		entries: make(map[string]Descriptor),
		byVideo: make(map[string][]subscriber),
		onStage: make(map[Stage][]subscriber),
	}
}

// Update merges u onto the current descriptor of videoID (or the default
// transcription/0/"Starting..." one), stores it, and notifies the general
// listeners, the listeners of the resulting stage, and the video's subscribers.
func (h *Hub) Update(videoID string, u Update) Descriptor {
	return h.apply(videoID, func(cur *Descriptor) {
		if u.Stage != nil {
			cur.Stage = *u.Stage
		}
		if u.Progress != nil {
			cur.Progress = clamp(*u.Progress)
		}
		if u.Message != nil {
			cur.Message = *u.Message
		}
		if u.Clips != nil {
			cur.Clips = append([]ClipProgress(nil), u.Clips...)
		}
	})
}

// UpdateClip sets the progress of one clip inside videoID's descriptor.
func (h *Hub) UpdateClip(videoID, clipID string, pct int) Descriptor {
	return h.apply(videoID, func(cur *Descriptor) {
		clips := append([]ClipProgress(nil), cur.Clips...)
		for i := range clips {
			if clips[i].ClipID == clipID {
				clips[i].Progress = pct
				cur.Clips = clips
				return
			}
		}
		cur.Clips = append(clips, ClipProgress{ClipID: clipID, Progress: pct})
	})
}

func (h *Hub) apply(videoID string, merge func(*Descriptor)) Descriptor {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.Lock()
	cur, ok := h.entries[videoID]
	if !ok {
		cur = Descriptor{VideoID: videoID, Stage: StageTranscription, Message: defaultMessage}
	}
	merge(&cur)
	h.entries[videoID] = cur
	listeners := h.snapshotLocked(videoID, cur.Stage)
	h.mu.Unlock()

	emit(listeners, cur)
	return cur.clone()
}

func (h *Hub) Get(videoID string) (Descriptor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.entries[videoID]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

func (h *Hub) Has(videoID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.entries[videoID]
	return ok
}

// Clear drops the entry. Subscribers stay registered.
func (h *Hub) Clear(videoID string) {
	h.mu.Lock()
	delete(h.entries, videoID)
	h.mu.Unlock()
}

// Subscribe registers fn for videoID. The current descriptor, if any, is
// delivered before Subscribe returns. The returned func unsubscribes and is
// safe to call more than once.
func (h *Hub) Subscribe(videoID string, fn Listener) (unsubscribe func()) {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.byVideo[videoID] = append(h.byVideo[videoID], subscriber{id: id, fn: fn})
	cur, ok := h.entries[videoID]
	h.mu.Unlock()

	if ok {
		fn(cur.clone())
	}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.byVideo[videoID] = remove(h.byVideo[videoID], id)
		if len(h.byVideo[videoID]) == 0 {
			delete(h.byVideo, videoID)
		}
	}
}

// OnChange registers fn for every update of every video.
func (h *Hub) OnChange(fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.onAny = append(h.onAny, subscriber{id: id, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.onAny = remove(h.onAny, id)
	}
}

// OnStage registers fn for updates whose merged stage is stage.
func (h *Hub) OnStage(stage Stage, fn Listener) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.onStage[stage] = append(h.onStage[stage], subscriber{id: id, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.onStage[stage] = remove(h.onStage[stage], id)
	}
}

// Watch adapts Subscribe to a channel. When the buffer is full the oldest
// queued descriptor is discarded so the latest one is always delivered.
// stop closes the channel.
func (h *Hub) Watch(videoID string, buf int) (<-chan Descriptor, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Descriptor, buf)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsub := h.Subscribe(videoID, func(d Descriptor) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		for {
			select {
			case ch <- d:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			unsub()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, stop
}

func (h *Hub) snapshotLocked(videoID string, stage Stage) []Listener {
	out := make([]Listener, 0, len(h.onAny)+len(h.onStage[stage])+len(h.byVideo[videoID]))
	for _, s := range h.onAny {
		out = append(out, s.fn)
	}
	for _, s := range h.onStage[stage] {
		out = append(out, s.fn)
	}
	for _, s := range h.byVideo[videoID] {
		out = append(out, s.fn)
	}
	return out
}

func emit(listeners []Listener, d Descriptor) {
	for _, fn := range listeners {
		fn(d.clone())
	}
}

func remove(subs []subscriber, id int) []subscriber {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
