// Package domain contains core domain types for the healthcoach application.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Wire keys of the profile attributes the coach understands. Every other key
// is carried in LearnerProfile.Extra.
const (
	KeyEmail           = "email"
	KeyFirstName       = "fname"
	KeySlidesCompleted = "slidesCompleted"
	KeyVideoWatched    = "videoWatched"
	KeyVideoProgress   = "videoProgress"
)

// DefaultFirstName is used when a profile carries no usable first name.
const DefaultFirstName = "User"

// LearnerProfile is a learner's identity and course progress, merged from the
// profile record and the progress record.
type LearnerProfile struct {
	// UserID links the profile record to its progress record. It is never
	// serialized.
	UserID string

	Email           string
	FirstName       string
	SlidesCompleted bool
	VideoWatched    bool
	// VideoProgress is a percentage in [0, 100]. Only meaningful while
	// VideoWatched is false.
	VideoProgress int

	// Extra holds unrecognized attributes, passed through unmodified.
	Extra map[string]any
}

// DisplayName returns the first name, or DefaultFirstName when it is blank.
func (p *LearnerProfile) DisplayName() string {
	if p == nil || strings.TrimSpace(p.FirstName) == "" {
		return DefaultFirstName
	}
	return p.FirstName
}

// ProfileFromMap builds a profile from a flat attribute map. Missing or
// malformed named attributes fall back to their zero values.
func ProfileFromMap(fields map[string]any) LearnerProfile {
	p := LearnerProfile{Extra: make(map[string]any)}
	for key, value := range fields {
		switch key {
		case KeyEmail:
			p.Email = asString(value)
		case KeyFirstName:
			p.FirstName = asString(value)
		case KeySlidesCompleted:
			p.SlidesCompleted = asBool(value)
		case KeyVideoWatched:
			p.VideoWatched = asBool(value)
		case KeyVideoProgress:
			p.VideoProgress = asPercent(value)
		default:
			p.Extra[key] = value
		}
	}
	return p
}

// Map flattens the profile back into an attribute map.
func (p LearnerProfile) Map() map[string]any {
	out := make(map[string]any, len(p.Extra)+5)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.Email != "" {
		out[KeyEmail] = p.Email
	}
	if p.FirstName != "" {
		out[KeyFirstName] = p.FirstName
	}
	out[KeySlidesCompleted] = p.SlidesCompleted
	out[KeyVideoWatched] = p.VideoWatched
	out[KeyVideoProgress] = p.VideoProgress
	return out
}

// MarshalJSON implements json.Marshaler.
func (p LearnerProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// UnmarshalJSON implements json.Unmarshaler. The payload must be a JSON object.
func (p *LearnerProfile) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("decode learner profile: %w", err)
	}
	userID := p.UserID
	*p = ProfileFromMap(fields)
	p.UserID = userID
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return false
	}
}

func asPercent(v any) int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0
		}
		f = n
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 100 {
		return 100
	}
	return int(f)
}

// ProfileRecord is a raw profile document as held by a profile store.
type ProfileRecord struct {
	ID        string
	Email     string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
