package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

type chatRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (r *chatRepo) Append(ctx context.Context, msg persistence.ChatMessage) (persistence.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO chat_history (id, user_id, avatar_id, user_message, ai_response)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING timestamp`

	err := r.db.QueryRowxContext(ctx, query,
		msg.ID, msg.UserID, msg.AvatarID, msg.UserMessage, msg.AIResponse).
		Scan(&msg.Timestamp)
	if err != nil {
		return persistence.ChatMessage{}, fmt.Errorf("failed to append chat message: %w", err)
	}
	return msg, nil
}

func (r *chatRepo) List(ctx context.Context, userID, avatarID string, limit int) ([]persistence.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, avatar_id, user_message, ai_response, timestamp
		FROM chat_history
		WHERE user_id = $1 AND ($2 = '' OR avatar_id = $2)
		ORDER BY timestamp DESC
		LIMIT $3`

	var out []persistence.ChatMessage
	if err := r.db.SelectContext(ctx, &out, query, userID, avatarID, limit); err != nil {
		return nil, fmt.Errorf("failed to list chat history: %w", err)
	}
	return out, nil
}

func (r *chatRepo) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
