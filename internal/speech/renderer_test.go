package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/healthcoach/internal/domain"
)

type fakeEngine struct {
	calls []Chunk
	err   error
}

func (f *fakeEngine) Synthesize(_ context.Context, chunk Chunk, lang domain.Language) ([]byte, error) {
	f.calls = append(f.calls, chunk)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("[" + string(lang) + ":" + chunk.Text + "]"), nil
}

func TestRender_BlankTextWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	engine := &fakeEngine{}
	r := NewRenderer(dir, engine, nil)

	artifact, err := r.Render(context.Background(), "  \n", domain.LanguageBengali, "response.mp3")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if artifact != nil {
		t.Errorf("Expected nil artifact, got %+v", artifact)
	}
	if len(engine.calls) != 0 {
		t.Errorf("Expected no synthesis calls, got %d", len(engine.calls))
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected audio directory to be untouched, stat err: %v", err)
	}
}

func TestRender_WritesConcatenatedChunks(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}
	r := NewRenderer(dir, engine, nil)

	text := strings.Repeat("word ", 30)
	artifact, err := r.Render(context.Background(), text, domain.LanguageEnglish, "response-abc.mp3")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if artifact.FileName != "response-abc.mp3" {
		t.Errorf("Expected file name response-abc.mp3, got %s", artifact.FileName)
	}
	if artifact.Language != domain.LanguageEnglish {
		t.Errorf("Expected language en, got %s", artifact.Language)
	}
	if len(engine.calls) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(engine.calls))
	}
	if engine.calls[1].Index != 1 || engine.calls[1].Total != 2 {
		t.Errorf("Unexpected chunk metadata %+v", engine.calls[1])
	}

	data, err := os.ReadFile(filepath.Join(dir, "response-abc.mp3"))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := "[en:" + engine.calls[0].Text + "][en:" + engine.calls[1].Text + "]"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the artifact in the directory, got %d entries", len(entries))
	}
}

func TestRender_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "response.mp3")
	if err := os.WriteFile(path, []byte("old audio that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(dir, &fakeEngine{}, nil)
	if _, err := r.Render(context.Background(), "hi", domain.LanguageBengali, "response.mp3"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "[bn:hi]" {
		t.Errorf("Expected overwritten content, got %q", string(data))
	}
}

func TestRender_EngineFailure(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, &fakeEngine{err: errors.New("503")}, nil)

	artifact, err := r.Render(context.Background(), "hello", domain.LanguageBengali, "response.mp3")
	if artifact != nil {
		t.Errorf("Expected nil artifact, got %+v", artifact)
	}
	if !errors.Is(err, ErrSynthesis) {
		t.Errorf("Expected ErrSynthesis, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "response.mp3")); !os.IsNotExist(statErr) {
		t.Error("Expected no artifact on disk")
	}
}

func TestRender_WriteFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(filepath.Join(blocker, "audio"), &fakeEngine{}, nil)
	_, err := r.Render(context.Background(), "hello", domain.LanguageBengali, "response.mp3")
	if !errors.Is(err, ErrWrite) {
		t.Errorf("Expected ErrWrite, got %v", err)
	}
}

func TestRender_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, &fakeEngine{}, nil)

	artifact, err := r.Render(context.Background(), "hello", domain.LanguageBengali, "../../etc/evil.mp3")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if artifact.FilePath != filepath.Join(dir, "evil.mp3") {
		t.Errorf("Expected artifact inside %s, got %s", dir, artifact.FilePath)
	}
	if artifact.URLPath() != "/audio/evil.mp3" {
		t.Errorf("Unexpected URL path %s", artifact.URLPath())
	}
}
