package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied by `finguru migrate`. Statements are idempotent so
// re-running a deploy is safe. Date-valued columns are stored as TEXT
// day keys (YYYY-MM-DD) because all day logic compares calendar days in
// the user's locale, never instants.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id           TEXT PRIMARY KEY,
    email        TEXT NOT NULL,
    display_name TEXT,
    avatar_style TEXT,
    avatar_url   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS avatar_library (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    bio       TEXT,
    image_url TEXT
);

CREATE TABLE IF NOT EXISTS chat_history (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    avatar_id    TEXT NOT NULL,
    user_message TEXT NOT NULL,
    ai_response  TEXT,
    timestamp    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chat_history_user_ts_idx ON chat_history (user_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS expenses (
    id       TEXT PRIMARY KEY,
    user_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    amount   DOUBLE PRECISION NOT NULL,
    category TEXT NOT NULL,
    note     TEXT,
    date     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS expenses_user_date_idx ON expenses (user_id, date DESC);

CREATE TABLE IF NOT EXISTS savings_goals (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title          TEXT NOT NULL,
    target_amount  DOUBLE PRECISION NOT NULL,
    current_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    deadline       TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
    user_id             TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    theme               TEXT,
    notifications       BOOLEAN NOT NULL DEFAULT true,
    preferred_avatar    TEXT,
    currency            TEXT NOT NULL DEFAULT 'USD',
    monthly_budget_goal DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS monthly_budgets (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    month             TEXT NOT NULL,
    income            DOUBLE PRECISION NOT NULL DEFAULT 0,
    savings_goal      DOUBLE PRECISION NOT NULL DEFAULT 0,
    fixed_expenses    JSONB NOT NULL DEFAULT '[]',
    variable_expenses JSONB NOT NULL DEFAULT '[]',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, month)
);

CREATE TABLE IF NOT EXISTS gamification_state (
    user_id       TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    xp            INTEGER NOT NULL DEFAULT 0,
    streak        INTEGER NOT NULL DEFAULT 0,
    last_check_in TEXT,
    badges        JSONB NOT NULL DEFAULT '[]',
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS notification_log (
    user_id TEXT NOT NULL,
    kind    TEXT NOT NULL,
    sent_on TEXT NOT NULL,
    PRIMARY KEY (user_id, kind, sent_on)
);
`

// seedAvatars keeps the static mentor library present after migration.
const seedAvatars = `
INSERT INTO avatar_library (id, name, bio) VALUES
    ('buffett', 'Warren', 'Value investing and long-term thinking.'),
    ('naval',   'Naval',  'Leverage, compounding, and judgment.'),
    ('dalio',   'Ray',    'Principles and diversified portfolios.')
ON CONFLICT (id) DO NOTHING;
`

// Migrate applies the schema and seeds the avatar library.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, seedAvatars); err != nil {
		return fmt.Errorf("failed to seed avatar library: %w", err)
	}
	return nil
}
