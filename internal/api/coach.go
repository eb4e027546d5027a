package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/healthcoach/internal/coach"
	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/identity"
	"github.com/ashureev/healthcoach/internal/profile"
)

const maxBodyBytes = 1 << 20

// Error messages shown to clients.
const (
	msgEmailRequired = "Email is required"
	msgUserNotFound  = "User not found"
	msgAnswerInput   = "User data and question are required"
	msgBadLanguage   = "Unsupported language"
	msgAudioFailed   = "Failed to generate audio"
	msgAudioNotFound = "Audio file not found"
	msgInvalidBody   = "Invalid request body"
	msgLookupFailed  = "Failed to fetch user data"
)

// CoachHandler serves the learner-facing endpoints.
type CoachHandler struct {
	*Handler
}

// NewCoachHandler creates a coach handler.
func NewCoachHandler(base *Handler) *CoachHandler {
	return &CoachHandler{Handler: base}
}

// RegisterRoutes registers the coach routes.
func (h *CoachHandler) RegisterRoutes(r chi.Router) {
	r.Post("/fetch_user_data", h.FetchUserData)
	r.Post("/get_answer", h.GetAnswer)
	r.Get("/audio/{filename}", h.GetAudio)
}

type fetchUserRequest struct {
	Email string `json:"email"`
}

type fetchUserResponse struct {
	PersonalizedQuestion string                 `json:"personalized_question"`
	UserData             *domain.LearnerProfile `json:"user_data"`
}

// FetchUserData looks up a learner and returns the personalized question.
func (h *CoachHandler) FetchUserData(w http.ResponseWriter, r *http.Request) {
	var req fetchUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.coach.FetchUser(r.Context(), req.Email)
	switch {
	case errors.Is(err, profile.ErrEmailRequired):
		Error(w, http.StatusBadRequest, msgEmailRequired)
		return
	case errors.Is(err, coach.ErrUserNotFound):
		Error(w, http.StatusNotFound, msgUserNotFound)
		return
	case err != nil:
		h.logger.Error("Failed to fetch user data", "error", err)
		Error(w, http.StatusInternalServerError, msgLookupFailed)
		return
	}

	JSON(w, http.StatusOK, fetchUserResponse{
		PersonalizedQuestion: res.Prompt,
		UserData:             res.Profile,
	})
}

type getAnswerRequest struct {
	UserData json.RawMessage `json:"user_data"`
	Question string          `json:"question"`
	Language string          `json:"language"`
}

type getAnswerResponse struct {
	GPTAnswer       string          `json:"gpt_answer"`
	AudioURL        string          `json:"audio_url"`
	AnswerSucceeded bool            `json:"answer_succeeded"`
	Language        domain.Language `json:"language"`
}

// GetAnswer answers a question and renders it to audio.
func (h *CoachHandler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	var req getAnswerRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if isEmptyJSON(req.UserData) || strings.TrimSpace(req.Question) == "" {
		Error(w, http.StatusBadRequest, msgAnswerInput)
		return
	}

	var p domain.LearnerProfile
	if err := json.Unmarshal(req.UserData, &p); err != nil {
		Error(w, http.StatusBadRequest, msgAnswerInput)
		return
	}

	lang := h.coach.DefaultLanguage()
	if strings.TrimSpace(req.Language) != "" {
		parsed, err := domain.ParseLanguage(req.Language)
		if err != nil {
			Error(w, http.StatusBadRequest, msgBadLanguage)
			return
		}
		lang = parsed
	}

	sessionID := identity.SessionIDFromContext(r.Context())
	resp, err := h.coach.Answer(r.Context(), coach.AnswerRequest{
		Profile:  p,
		Question: req.Question,
		Language: lang,
		FileName: identity.ArtifactName(h.audioMode, sessionID),
	})
	switch {
	case errors.Is(err, coach.ErrQuestionRequired):
		Error(w, http.StatusBadRequest, msgAnswerInput)
		return
	case err != nil:
		h.logger.Error("Failed to answer question", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, msgAudioFailed)
		return
	}

	JSON(w, http.StatusOK, getAnswerResponse{
		GPTAnswer:       resp.Answer.Text,
		AudioURL:        resp.Artifact.URLPath(),
		AnswerSucceeded: resp.Answer.Succeeded,
		Language:        resp.Language,
	})
}

// GetAudio streams a generated audio file.
func (h *CoachHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		Error(w, http.StatusNotFound, msgAudioNotFound)
		return
	}

	path := filepath.Join(h.audioDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		Error(w, http.StatusNotFound, msgAudioNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", `""`:
		return true
	}
	return false
}
