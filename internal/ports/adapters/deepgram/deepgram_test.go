package deepgram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/clipline/internal/types"
)

type mapCreds map[string]string

func (m mapCreds) Lookup(k string) (string, error) {
	if v := m[k]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s is not set", types.ErrConfiguration, k)
}

type brokenCreds struct{ err error }

func (b brokenCreds) Lookup(string) (string, error) { return "", b.err }

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(p, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return p
}

func TestTranscribe_Success(t *testing.T) {
	body := `{"metadata":{"request_id":"r1","duration":3.2,"channels":1},"results":{"utterances":[{"start":0.1,"end":1.2,"transcript":"hi there","words":[{"word":"hi","start":0.1,"end":0.4,"punctuated_word":"Hi"},{"word":"there","start":0.5,"end":1.2,"punctuated_word":"there."}]}]}}`
	var gotAuth, gotQuery, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	a := New(mapCreds{CredentialKey: "dg-secret"}, "", srv.URL)
	resp, raw, err := a.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if gotAuth != "Token dg-secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	for _, want := range []string{"model=nova-2", "utterances=true", "punctuate=true"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("expected %q in query %q", want, gotQuery)
		}
	}
	if gotType != "audio/wav" || string(gotBody) != "RIFF....WAVE" {
		t.Fatalf("unexpected upload: type=%q body=%q", gotType, string(gotBody))
	}
	if string(raw) != body {
		t.Fatalf("raw body must be returned verbatim")
	}
	if len(resp.Results.Utterances) != 1 || resp.Results.Utterances[0].Words[0].Text() != "Hi" {
		t.Fatalf("unexpected decoded response: %+v", resp)
	}
}

func TestTranscribe_MissingKeyIsConfigurationError(t *testing.T) {
	_, _, err := New(mapCreds{}, "", "http://127.0.0.1:1").Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribe_UnreadableSecretsFileIsReported(t *testing.T) {
	cause := fmt.Errorf("%w: %s: parse secrets file: yaml: bad indent", types.ErrConfiguration, CredentialKey)
	_, _, err := New(brokenCreds{err: cause}, "", "http://127.0.0.1:1").Transcribe(context.Background(), writeAudio(t))
	if !errors.Is(err, types.ErrConfiguration) || !strings.Contains(err.Error(), "parse secrets file") {
		t.Fatalf("expected parse failure to surface, got %v", err)
	}
}

func TestTranscribe_StatusErrorIsRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"err":"bad key dg-secret"}`))
	}))
	defer srv.Close()

	_, _, err := New(mapCreds{CredentialKey: "dg-secret"}, "", srv.URL).Transcribe(context.Background(), writeAudio(t))
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "dg-secret") {
		t.Fatalf("key leaked in error: %v", err)
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected status in error: %v", err)
	}
}
