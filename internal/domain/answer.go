package domain

// FallbackAnswer is the text shown when no answer could be generated.
const FallbackAnswer = "I couldn't fetch an answer. Please try again later."

// AnswerResult is the outcome of one question. On failure Text holds
// FallbackAnswer and Reason describes what went wrong.
type AnswerResult struct {
	Text      string `json:"text"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"-"`
}

// AnswerSucceeded wraps a generated answer.
func AnswerSucceeded(text string) AnswerResult {
	return AnswerResult{Text: text, Succeeded: true}
}

// AnswerFailed returns the fallback result for the given reason.
func AnswerFailed(reason string) AnswerResult {
	return AnswerResult{Text: FallbackAnswer, Reason: reason}
}
