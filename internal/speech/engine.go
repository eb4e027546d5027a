// Package speech renders answer text to MP3 artifacts.
package speech

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/ashureev/healthcoach/internal/domain"
)

// DefaultGoogleBaseURL is the public Google Translate host.
const DefaultGoogleBaseURL = "https://translate.google.com"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) healthcoach"

// Chunk is one piece of a longer text sent to an Engine.
type Chunk struct {
	Text  string
	Index int
	Total int
}

// Engine synthesizes MP3 audio for a single chunk.
type Engine interface {
	Synthesize(ctx context.Context, chunk Chunk, lang domain.Language) ([]byte, error)
}

// GoogleEngine synthesizes speech with the Google Translate TTS endpoint.
type GoogleEngine struct {
	client *resty.Client
}

// NewGoogleEngine creates an engine against baseURL; empty uses
// DefaultGoogleBaseURL.
func NewGoogleEngine(baseURL string) *GoogleEngine {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent)
	return &GoogleEngine{client: client}
}

// Synthesize implements Engine.
func (e *GoogleEngine) Synthesize(ctx context.Context, chunk Chunk, lang domain.Language) ([]byte, error) {
	res, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ie":      "UTF-8",
			"client":  "tw-ob",
			"tl":      string(lang),
			"q":       chunk.Text,
			"total":   strconv.Itoa(chunk.Total),
			"idx":     strconv.Itoa(chunk.Index),
			"textlen": strconv.Itoa(utf8.RuneCountInString(chunk.Text)),
		}).
		Get("/translate_tts")
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("tts status code: %d", res.StatusCode())
	}
	if len(res.Body()) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}
	return res.Body(), nil
}
