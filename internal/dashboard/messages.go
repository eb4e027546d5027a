package dashboard

import "github.com/ashureev/healthcoach/internal/domain"

// Message types.
const (
	TypeLookup  = "lookup"
	TypeRefresh = "refresh"
	TypeAsk     = "ask"
	TypePing    = "ping"

	TypeProfile = "profile"
	TypeAnswer  = "answer"
	TypePong    = "pong"
	TypeError   = "error"
)

// inbound is a client message.
type inbound struct {
	Type     string `json:"type"`
	Email    string `json:"email,omitempty"`
	Question string `json:"question,omitempty"`
	Language string `json:"language,omitempty"`
	// Translate defaults to true when omitted.
	Translate *bool `json:"translate,omitempty"`
}

type profileMessage struct {
	Type                 string                 `json:"type"`
	PersonalizedQuestion string                 `json:"personalized_question"`
	UserData             *domain.LearnerProfile `json:"user_data"`
}

type answerMessage struct {
	Type             string          `json:"type"`
	GPTAnswer        string          `json:"gpt_answer"`
	TranslatedAnswer string          `json:"translated_answer"`
	AudioURL         string          `json:"audio_url"`
	AnswerSucceeded  bool            `json:"answer_succeeded"`
	Language         domain.Language `json:"language"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type pongMessage struct {
	Type string `json:"type"`
}

func errorReply(msg string) errorMessage {
	return errorMessage{Type: TypeError, Error: msg}
}
