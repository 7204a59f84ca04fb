package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/forPelevin/clipline/internal/types"
)

func newStore(t *testing.T, env map[string]string) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "secrets.yaml"))
	s.getenv = func(k string) string { return env[k] }
	return s
}

func TestLookup_MissingFile(t *testing.T) {
	s := newStore(t, nil)
	_, err := s.Lookup("GEMINI_API_KEY")
	if !errors.Is(err, types.ErrConfiguration) || !strings.Contains(err.Error(), "not set") {
		t.Fatalf("expected not-set configuration error, got %v", err)
	}
}

func TestSetThenLookup(t *testing.T) {
	s := newStore(t, nil)
	if err := s.Set("GEMINI_API_KEY", "g-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := s.Lookup("GEMINI_API_KEY")
	if err != nil || v != "g-1" {
		t.Fatalf("got %q err=%v", v, err)
	}
	st, err := os.Stat(s.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", st.Mode().Perm())
	}
}

func TestSet_CreatesParentDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "dir", "secrets.yaml"))
	s.getenv = func(string) string { return "" }
	if err := s.Set("DEEPGRAM_API_KEY", "dg"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := s.Lookup("DEEPGRAM_API_KEY"); err != nil || v != "dg" {
		t.Fatalf("got %q err=%v", v, err)
	}
}

func TestLookup_EnvWins(t *testing.T) {
	s := newStore(t, map[string]string{"DEEPGRAM_API_KEY": "from-env"})
	if err := s.Set("DEEPGRAM_API_KEY", "from-file"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := s.Lookup("DEEPGRAM_API_KEY"); v != "from-env" {
		t.Fatalf("expected env value, got %q", v)
	}
	if !s.InEnv("DEEPGRAM_API_KEY") || s.InEnv("GEMINI_API_KEY") {
		t.Fatalf("unexpected env override report")
	}
}

func TestLookup_BlankValueIsAbsent(t *testing.T) {
	s := newStore(t, nil)
	if err := os.WriteFile(s.path, []byte("GEMINI_API_KEY: \"  \"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Lookup("GEMINI_API_KEY"); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("blank secret must be treated as missing, got %v", err)
	}
}

func TestLookup_MalformedFileReportsParseError(t *testing.T) {
	s := newStore(t, nil)
	if err := os.WriteFile(s.path, []byte("- a\n- b\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := s.Lookup("GEMINI_API_KEY")
	if !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "parse secrets file") || strings.Contains(err.Error(), "not set") {
		t.Fatalf("parse failure must be reported as such, got %v", err)
	}
	if _, err := s.Keys(); err == nil {
		t.Fatalf("keys must fail on a malformed file")
	}
}

func TestDeleteAndKeys(t *testing.T) {
	s := newStore(t, nil)
	for k, v := range map[string]string{"OPENROUTER_API_KEY": "or", "DEEPGRAM_API_KEY": "dg"} {
		if err := s.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := s.Keys()
	if err != nil || !slices.Equal(keys, []string{"DEEPGRAM_API_KEY", "OPENROUTER_API_KEY"}) {
		t.Fatalf("keys = %v err=%v", keys, err)
	}

	if err := s.Delete("DEEPGRAM_API_KEY"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete("DEEPGRAM_API_KEY"); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if _, err := s.Lookup("DEEPGRAM_API_KEY"); !errors.Is(err, types.ErrConfiguration) {
		t.Fatalf("deleted key still resolves: %v", err)
	}
	if keys, _ := s.Keys(); !slices.Equal(keys, []string{"OPENROUTER_API_KEY"}) {
		t.Fatalf("keys after delete = %v", keys)
	}
}
