// Package api provides HTTP handlers for the coach API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/healthcoach/internal/coach"
	"github.com/ashureev/healthcoach/internal/domain"
)

// Coach is the use-case layer the handlers delegate to.
type Coach interface {
	FetchUser(ctx context.Context, email string) (*coach.FetchResult, error)
	Answer(ctx context.Context, req coach.AnswerRequest) (*coach.AnswerResponse, error)
	DefaultLanguage() domain.Language
	Ready(ctx context.Context) error
}

// Handler provides common handler utilities.
type Handler struct {
	coach     Coach
	audioDir  string
	audioMode string
	logger    *slog.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(c Coach, audioDir, audioMode string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		coach:     c,
		audioDir:  audioDir,
		audioMode: audioMode,
		logger:    logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
