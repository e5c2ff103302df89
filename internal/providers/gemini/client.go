// Package gemini wraps the Google GenAI SDK behind the two calls the
// service needs: mentor chat completion and audio transcription. All
// calls go through a circuit breaker so a struggling vendor degrades
// the chat feature instead of piling up requests.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/Sirimanoj/finguru/internal/domain/mentor"
)

const (
	// DefaultModel matches the model the hosted edge function used.
	DefaultModel = "gemini-1.5-flash-latest"

	temperature     = 0.7
	maxOutputTokens = 2048
	callTimeout     = 30 * time.Second
)

var (
	// ErrUnavailable indicates the breaker is open or the vendor is down;
	// the user action is retryable.
	ErrUnavailable = errors.New("gemini: model api unavailable")
	// ErrEmptyReply indicates the model returned no usable text.
	ErrEmptyReply = errors.New("gemini: empty reply")
)

// Client talks to the Gemini API.
type Client struct {
	genai   *genai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// New creates a Gemini client. onStateChange, when non-nil, observes
// breaker transitions (wired to the breaker-state gauge).
func New(ctx context.Context, apiKey string, onStateChange func(gobreaker.State), opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	c := &Client{genai: gc, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "gemini",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if onStateChange != nil {
				onStateChange(to)
			}
		},
	})
	return c, nil
}

// Complete sends one mentor exchange: the persona system prompt, the
// windowed history, and the new user message.
func (c *Client) Complete(ctx context.Context, system string, history []mentor.Turn, message string) (string, error) {
	contents := conversation(history, message)

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(temperature)),
		MaxOutputTokens:   maxOutputTokens,
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	return c.generate(ctx, contents, cfg)
}

// conversation maps the stored history onto the wire roles and appends
// the new user message last.
func conversation(history []mentor.Turn, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleModel)
		if turn.Role == "user" {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}

// Transcribe turns a finished audio recording into text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromText("Transcribe this audio recording verbatim. Reply with the transcript only."),
			genai.NewPartFromBytes(audio, mimeType),
		},
	}}
	return c.generate(ctx, contents, nil)
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			return nil, err
		}
		text := resp.Text()
		if text == "" {
			return nil, ErrEmptyReply
		}
		return text, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrUnavailable
	}
	if err != nil {
		return "", fmt.Errorf("gemini: generate failed: %w", err)
	}
	return out.(string), nil
}
