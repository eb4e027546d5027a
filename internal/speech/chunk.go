package speech

import (
	"strings"
	"unicode/utf8"
)

// MaxChunkLen is the longest text, in characters, the TTS endpoint accepts.
const MaxChunkLen = 100

// SplitText breaks text into chunks of at most limit characters, preferring
// word boundaries. Words longer than limit are cut.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunkLen
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:limit]))
			word = string(runes[limit:])
		}

		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()

	return chunks
}
