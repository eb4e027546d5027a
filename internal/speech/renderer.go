package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/healthcoach/internal/domain"
)

var (
	// ErrSynthesis wraps failures of the speech engine.
	ErrSynthesis = errors.New("speech synthesis failed")
	// ErrWrite wraps failures writing the artifact to disk.
	ErrWrite = errors.New("audio write failed")
)

// Renderer writes synthesized speech into a directory.
type Renderer struct {
	dir    string
	engine Engine
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string, engine Engine, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{dir: dir, engine: engine, logger: logger}
}

// Render synthesizes text in lang and stores it as fileName, replacing any
// previous file of that name. Blank text produces no artifact and no error.
func (r *Renderer) Render(ctx context.Context, text string, lang domain.Language, fileName string) (*domain.AudioArtifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	name := filepath.Base(fileName)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: invalid file name %q", ErrWrite, fileName)
	}

	chunks := SplitText(text, MaxChunkLen)
	var audio bytes.Buffer
	for i, c := range chunks {
		data, err := r.engine.Synthesize(ctx, Chunk{Text: c, Index: i, Total: len(chunks)}, lang)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %v", ErrSynthesis, i+1, len(chunks), err)
		}
		audio.Write(data)
	}

	path := filepath.Join(r.dir, name)
	if err := r.writeFile(path, audio.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	r.logger.Debug("Rendered speech", "file", name, "language", lang, "chunks", len(chunks), "bytes", audio.Len())
	return &domain.AudioArtifact{FilePath: path, FileName: name, Language: lang}, nil
}

// writeFile replaces path atomically via a temp file in the same directory.
func (r *Renderer) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".speech-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		r.logger.Warn("Failed to chmod audio file", "file", tmpName, "error", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename audio file: %w", err)
	}
	return nil
}
