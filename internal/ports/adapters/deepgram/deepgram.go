package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/forPelevin/clipline/internal/ports"
	"github.com/forPelevin/clipline/internal/types"
)

const (
	CredentialKey  = "DEEPGRAM_API_KEY"
	defaultBaseURL = "https://api.deepgram.com"
	defaultModel   = "nova-2"
	requestTimeout = 5 * time.Minute
	errorBodyLimit = 400
)

type Adapter struct {
	creds   ports.Credentials
	model   string
	baseURL string
	client  *http.Client
}

func New(creds ports.Credentials, model, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{creds: creds, model: model, baseURL: baseURL, client: &http.Client{Timeout: requestTimeout}}
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.STTResponse, []byte, error) {
	key, err := a.creds.Lookup(CredentialKey)
	if err != nil {
		return types.STTResponse{}, nil, err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return types.STTResponse{}, nil, err
	}
	defer f.Close()

	q := url.Values{}
	q.Set("model", a.model)
	q.Set("utterances", "true")
	q.Set("punctuate", "true")
	endpoint := a.baseURL + "/v1/listen?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return types.STTResponse{}, nil, err
	}
	req.Header.Set("Authorization", "Token "+key)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := a.client.Do(req)
	if err != nil {
		return types.STTResponse{}, nil, fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.STTResponse{}, nil, fmt.Errorf("deepgram read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(body), key, "[REDACTED]")
		return types.STTResponse{}, nil, fmt.Errorf("deepgram status %d: %s", resp.StatusCode, truncate(msg, errorBodyLimit))
	}

	if len(body) == 0 {
		return types.STTResponse{}, nil, errors.New("no result from deepgram")
	}
	var out types.STTResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return types.STTResponse{}, nil, fmt.Errorf("decode deepgram response: %w", err)
	}
	return out, body, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
