package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Coach is the server API the chat loop uses.
type Coach interface {
	FetchUser(ctx context.Context, email string) (*FetchUserResponse, error)
	Ask(ctx context.Context, userData json.RawMessage, question, language string) (*AnswerResponse, error)
	AudioURL(path string) string
}

// Chat is an interactive question loop for one learner.
type Chat struct {
	coach    Coach
	in       *bufio.Scanner
	out      io.Writer
	language string

	prompt *color.Color
	coachC *color.Color
	errC   *color.Color
	info   *color.Color
}

// NewChat creates a chat loop reading from in and writing to out.
func NewChat(c Coach, in io.Reader, out io.Writer, language string) *Chat {
	return &Chat{
		coach:    c,
		in:       bufio.NewScanner(in),
		out:      out,
		language: language,
		prompt:   color.New(color.Bold),
		coachC:   color.New(color.FgCyan),
		errC:     color.New(color.FgRed),
		info:     color.New(color.Faint),
	}
}

// Run looks up email (asking for it when empty) and answers questions until
// the user types "exit" or input ends.
func (c *Chat) Run(ctx context.Context, email string) error {
	fmt.Fprintln(c.out, "Welcome to the health coach! Type 'exit' to quit.")

	var userData json.RawMessage
	for userData == nil {
		if strings.TrimSpace(email) == "" {
			line, ok := c.readLine("Email: ")
			if !ok || isExit(line) {
				return nil
			}
			email = line
		}

		res, err := c.coach.FetchUser(ctx, email)
		switch {
		case errors.Is(err, ErrUserNotFound):
			c.errC.Fprintf(c.out, "No learner found for %s\n", strings.TrimSpace(email))
			email = ""
			continue
		case err != nil:
			return fmt.Errorf("look up %s: %w", email, err)
		}

		userData = res.UserData
		c.coachC.Fprintf(c.out, "Coach: %s\n", res.PersonalizedQuestion)
	}

	for {
		question, ok := c.readLine("You: ")
		if !ok || isExit(question) {
			return nil
		}
		if question == "" {
			continue
		}

		ans, err := c.coach.Ask(ctx, userData, question, c.language)
		if err != nil {
			c.errC.Fprintf(c.out, "Failed to get a response from the coach: %v\n", err)
			continue
		}
		c.coachC.Fprintf(c.out, "Coach: %s\n", ans.GPTAnswer)
		if url := c.coach.AudioURL(ans.AudioURL); url != "" {
			c.info.Fprintf(c.out, "Audio (%s): %s\n", ans.Language, url)
		}
	}
}

func (c *Chat) readLine(label string) (string, bool) {
	c.prompt.Fprint(c.out, label)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func isExit(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "exit")
}
