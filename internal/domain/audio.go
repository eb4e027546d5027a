package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Language is a speech/translation language code.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageBengali Language = "bn"
)

// ErrUnsupportedLanguage is returned by ParseLanguage for unknown codes.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	switch lang := Language(strings.ToLower(strings.TrimSpace(s))); lang {
	case LanguageEnglish, LanguageBengali:
		return lang, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
}

// AudioArtifact is a generated speech file in the audio directory.
type AudioArtifact struct {
	FilePath string
	FileName string
	Language Language
}

// URLPath returns the path the artifact is served under.
func (a *AudioArtifact) URLPath() string {
	return "/audio/" + a.FileName
}
