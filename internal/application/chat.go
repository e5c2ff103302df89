package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Sirimanoj/finguru/internal/domain/mentor"
	"github.com/Sirimanoj/finguru/internal/metrics"
	"github.com/Sirimanoj/finguru/internal/persistence"
)

// Completer is the upstream model surface the chat service depends on.
type Completer interface {
	Complete(ctx context.Context, system string, history []mentor.Turn, message string) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Per-user chat allowance: one message every 2s sustained, short bursts
// tolerated.
var chatLimit = rate.Every(2 * time.Second)

const chatBurst = 3

// maxMessageLen bounds a single chat message; longer input is a client
// bug, not a conversation.
const maxMessageLen = 4000

// ChatService runs the mentor conversation: guardrails, history window,
// persona prompt, model call, transcript storage.
type ChatService struct {
	repo    *persistence.Repository
	model   Completer
	metrics *metrics.Registry
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewChatService wires the service. m may be nil.
func NewChatService(repo *persistence.Repository, model Completer, m *metrics.Registry) *ChatService {
	return &ChatService{
		repo:     repo,
		model:    model,
		metrics:  m,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// WithClock replaces the service clock.
func (c *ChatService) WithClock(now func() time.Time) *ChatService {
	c.now = now
	return c
}

func (c *ChatService) limiter(userID string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[userID]
	if !ok {
		l = rate.NewLimiter(chatLimit, chatBurst)
		c.limiters[userID] = l
	}
	return l
}

func (c *ChatService) outcome(o string) {
	if c.metrics != nil {
		c.metrics.ChatCompletions.WithLabelValues(o).Inc()
	}
}

// Send runs one exchange with the mentor and stores it. Guardrailed
// messages get the canned refusal without reaching the model.
func (c *ChatService) Send(ctx context.Context, userID, avatarID, message string) (persistence.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return persistence.ChatMessage{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(message) > maxMessageLen {
		return persistence.ChatMessage{}, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxMessageLen)
	}
	if avatarID == "" {
		return persistence.ChatMessage{}, fmt.Errorf("%w: avatar_id is required", ErrInvalidInput)
	}
	if !c.limiter(userID).Allow() {
		c.outcome("rate_limited")
		return persistence.ChatMessage{}, ErrRateLimited
	}

	if mentor.Blocked(message) {
		c.outcome("blocked")
		log.Debug().Str("user_id", userID).Msg("chat message blocked by guardrail")
		return c.append(ctx, userID, avatarID, message, mentor.RefusalReply)
	}

	history, err := c.history(ctx, userID, avatarID)
	if err != nil {
		return persistence.ChatMessage{}, err
	}

	start := c.now()
	reply, err := c.model.Complete(ctx, mentor.SystemPrompt(avatarID), history, message)
	if c.metrics != nil {
		c.metrics.ChatLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.outcome("error")
		return persistence.ChatMessage{}, fmt.Errorf("mentor completion: %w", err)
	}

	c.outcome("ok")
	return c.append(ctx, userID, avatarID, message, reply)
}

// history rebuilds the model context from the stored transcript,
// oldest first, already windowed.
func (c *ChatService) history(ctx context.Context, userID, avatarID string) ([]mentor.Turn, error) {
	msgs, err := c.repo.Chat.List(ctx, userID, avatarID, mentor.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	// List is newest-first; the model wants chronological order.
	turns := make([]mentor.Turn, 0, len(msgs)*2)
	for i := len(msgs) - 1; i >= 0; i-- {
		turns = append(turns, mentor.Turn{Role: "user", Content: msgs[i].UserMessage})
		if msgs[i].AIResponse != nil {
			turns = append(turns, mentor.Turn{Role: "model", Content: *msgs[i].AIResponse})
		}
	}
	return mentor.Window(turns), nil
}

func (c *ChatService) append(ctx context.Context, userID, avatarID, message, reply string) (persistence.ChatMessage, error) {
	msg, err := c.repo.Chat.Append(ctx, persistence.ChatMessage{
		UserID:      userID,
		AvatarID:    avatarID,
		UserMessage: message,
		AIResponse:  &reply,
		Timestamp:   c.now().UTC(),
	})
	if err != nil {
		return persistence.ChatMessage{}, fmt.Errorf("store chat message: %w", err)
	}
	return msg, nil
}

// History returns stored exchanges newest-first, optionally filtered by
// avatar. limit defaults to 50.
func (c *ChatService) History(ctx context.Context, userID, avatarID string, limit int) ([]persistence.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.repo.Chat.List(ctx, userID, avatarID, limit)
}

// DeleteMessage removes one exchange owned by the user.
func (c *ChatService) DeleteMessage(ctx context.Context, userID, id string) error {
	return c.repo.Chat.Delete(ctx, userID, id)
}

// Transcribe converts recorded audio into text for the chat composer.
func (c *ChatService) Transcribe(ctx context.Context, userID string, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: audio payload is required", ErrInvalidInput)
	}
	if !c.limiter(userID).Allow() {
		return "", ErrRateLimited
	}
	text, err := c.model.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Personas exposes the persona catalog for the avatar picker.
func (c *ChatService) Personas() []mentor.Persona {
	return mentor.Personas()
}
