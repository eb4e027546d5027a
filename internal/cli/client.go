// Package cli implements the terminal front-end of the coach and its
// administrative commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/ashureev/healthcoach/internal/identity"
)

// ErrUserNotFound is returned when the server knows no user for an email.
var ErrUserNotFound = errors.New("user not found")

// APIError is a non-2xx server reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// FetchUserResponse is the reply of /fetch_user_data.
type FetchUserResponse struct {
	PersonalizedQuestion string          `json:"personalized_question"`
	UserData             json.RawMessage `json:"user_data"`
}

// AnswerResponse is the reply of /get_answer.
type AnswerResponse struct {
	GPTAnswer       string `json:"gpt_answer"`
	AudioURL        string `json:"audio_url"`
	AnswerSucceeded bool   `json:"answer_succeeded"`
	Language        string `json:"language"`
}

type errorBody struct {
	Error string `json:"error"`
}

// APIClient talks to the coach HTTP API.
type APIClient struct {
	http    *resty.Client
	baseURL string
}

// NewAPIClient creates a client for the server at baseURL. All requests
// carry sessionID so the server names audio artifacts per session.
func NewAPIClient(baseURL, sessionID string) *APIClient {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader(identity.SessionHeaderName, sessionID)
	return &APIClient{http: client, baseURL: baseURL}
}

// AudioURL resolves a server-relative audio path.
func (c *APIClient) AudioURL(path string) string {
	if path == "" {
		return ""
	}
	return c.baseURL + path
}

// FetchUser looks up a learner by email.
func (c *APIClient) FetchUser(ctx context.Context, email string) (*FetchUserResponse, error) {
	var out FetchUserResponse
	var apiErr errorBody
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/fetch_user_data")
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if res.IsError() {
		return nil, &APIError{Status: res.StatusCode(), Message: apiErr.Error}
	}
	return &out, nil
}

// Ask sends a question in the context of userData.
func (c *APIClient) Ask(ctx context.Context, userData json.RawMessage, question, language string) (*AnswerResponse, error) {
	body := map[string]any{
		"user_data": userData,
		"question":  question,
	}
	if language != "" {
		body["language"] = language
	}

	var out AnswerResponse
	var apiErr errorBody
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/get_answer")
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	if res.IsError() {
		return nil, &APIError{Status: res.StatusCode(), Message: apiErr.Error}
	}
	return &out, nil
}
