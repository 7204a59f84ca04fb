package ports

import (
	"context"

	"github.com/forPelevin/clipline/internal/types"
)

// Runner spawns an external binary and succeeds only on exit code 0.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) error
	Output(ctx context.Context, bin string, args ...string) ([]byte, error)
}

type Downloader interface {
	Metadata(ctx context.Context, videoID string) (types.VideoMetadata, error)
	DownloadAudio(ctx context.Context, videoID, outWav string) error
	DownloadRange(ctx context.Context, videoID string, start, end float64, outMP4 string) error
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	// BurnSubtitles renders srtPath into the video and replaces videoPath in place.
	BurnSubtitles(ctx context.Context, videoPath, srtPath string) error
}

// ASR produces the long-form transcript used for analysis.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// STT produces word-level timings for a produced clip. raw is the verbatim provider body.
type STT interface {
	Transcribe(ctx context.Context, audioPath string) (resp types.STTResponse, raw []byte, err error)
}

type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Credentials resolves API keys. Lookup fails with ErrConfiguration when the
// key is unset or the backing file cannot be read.
type Credentials interface {
	Lookup(key string) (string, error)
}

type ClipFilter struct {
	Status    types.ClipStatus // empty means all
	SortBy    string           // "created" or "updated"
	Ascending bool
}

type VideoStore interface {
	GetVideo(ctx context.Context, id string) (*types.Video, error)
	InsertVideo(ctx context.Context, v *types.Video) error
	ListVideos(ctx context.Context) ([]types.Video, error)
	SetVideoTranscript(ctx context.Context, id string, tr types.Transcript) error
	SetVideoStatus(ctx context.Context, id string, status types.VideoStatus, errMsg string) error
	DeleteVideo(ctx context.Context, id string) error
}

type ClipStore interface {
	InsertClips(ctx context.Context, clips []types.Clip) error
	GetClip(ctx context.Context, id string) (*types.Clip, error)
	ListClipsByVideo(ctx context.Context, videoID string) ([]types.Clip, error)
	ListClips(ctx context.Context, f ClipFilter) ([]types.Clip, error)
	// UpdateClipTimings rewrites every range in one transaction and returns the updated clips.
	UpdateClipTimings(ctx context.Context, timings []types.ClipTiming) ([]types.Clip, error)
	SetClipSTTResponse(ctx context.Context, id, raw string) error
	SetClipSRT(ctx context.Context, id, srt string) error
	SetClipSummary(ctx context.Context, id, summary string) error
	SetClipStatus(ctx context.Context, id string, status types.ClipStatus, errMsg string) error
	DeleteClip(ctx context.Context, id string) error
}

type Store interface {
	VideoStore
	ClipStore
}
