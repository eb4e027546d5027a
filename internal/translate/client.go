// Package translate translates answer text with the Google Translate web
// endpoint.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/ashureev/healthcoach/internal/domain"
)

// DefaultBaseURL is the public translation host.
const DefaultBaseURL = "https://translate.googleapis.com"

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text string, source, target domain.Language) (string, error)
}

// Client implements Translator.
type Client struct {
	http *resty.Client
}

// NewClient creates a Client against baseURL; empty uses DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: resty.New().SetBaseURL(baseURL)}
}

// Translate returns text translated from source to target. Identical
// languages and blank text are returned unchanged without a request.
func (c *Client) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     string(source),
			"tl":     string(target),
			"dt":     "t",
			"q":      text,
		}).
		Get("/translate_a/single")
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("translate status code: %d", res.StatusCode())
	}

	return parseSegments(res.Body())
}

// parseSegments joins the translated segments of a translate_a/single
// response: [[["seg1","src1",...],["seg2","src2",...]],...].
func parseSegments(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("translate: invalid response body")
	}

	var b strings.Builder
	for _, seg := range gjson.GetBytes(body, "0.#.0").Array() {
		b.WriteString(seg.String())
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("translate: response has no segments")
	}
	return b.String(), nil
}
