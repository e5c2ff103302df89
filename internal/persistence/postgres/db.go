// Package postgres implements the persistence interfaces on PostgreSQL
// via sqlx. Every call derives a context with the repository timeout.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

const defaultTimeout = 5 * time.Second

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// NewRepository wires all repositories over one pool.
func NewRepository(db *sqlx.DB) *persistence.Repository {
	timeout := defaultTimeout
	return &persistence.Repository{
		Users:         &usersRepo{db: db, timeout: timeout},
		Avatars:       &avatarsRepo{db: db, timeout: timeout},
		Chat:          &chatRepo{db: db, timeout: timeout},
		Expenses:      &expensesRepo{db: db, timeout: timeout},
		Goals:         &goalsRepo{db: db, timeout: timeout},
		Settings:      &settingsRepo{db: db, timeout: timeout},
		Budgets:       &budgetsRepo{db: db, timeout: timeout},
		Gamification:  &gamificationRepo{db: db, timeout: timeout},
		Notifications: &notificationLogRepo{db: db, timeout: timeout},
	}
}
