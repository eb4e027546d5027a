// Package completion talks to a remote chat-completion service.
package completion

import (
	"context"
	"errors"
)

//go:generate mockgen -source=client.go -destination=../mocks/completion/mock_client.go -package=mock_completion

// ErrEmptyCompletion is returned when the service answers without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Request is a single-turn completion request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	// Temperature is always sent, including 0.
	Temperature  float64
}

// Client produces a completion for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
