package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one schema version.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_taxonomy", UpSQL: migration001Up},
		{Version: 2, Name: "create_users_points_marks", UpSQL: migration002Up},
		{Version: 3, Name: "create_achievements", UpSQL: migration003Up},
	}
}

// Migrate applies all pending migrations, each in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.sqlDB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("%w: create migrations table: %v", ErrMigrationFailed, err)
	}

	for _, mig := range GetMigrations() {
		applied, err := exists(ctx, db.sqlDB, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", mig.Version)
		if err != nil {
			return fmt.Errorf("%w: check version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		if applied {
			continue
		}

		err = db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
				mig.Version, mig.Name, toMicros(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: Taxonomy
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE industries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT    NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE sub_industries (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT    NOT NULL,
    industry_id INTEGER NOT NULL REFERENCES industries(id) ON DELETE CASCADE,
    base_score  REAL    NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    UNIQUE (industry_id, name)
);

CREATE TABLE criteria (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    text        TEXT    NOT NULL,
    industry_id INTEGER NOT NULL REFERENCES industries(id) ON DELETE CASCADE,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    UNIQUE (industry_id, text)
);

CREATE INDEX idx_sub_industries_industry ON sub_industries(industry_id);
CREATE INDEX idx_criteria_industry ON criteria(industry_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: Users, points, marks
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE users (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    username       TEXT    NOT NULL UNIQUE,
    email          TEXT    NOT NULL UNIQUE,
    password_hash  TEXT    NOT NULL,
    xp             INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
    level          INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
    avatar_url     TEXT,
    avatar_history TEXT    NOT NULL DEFAULT '[]',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE TABLE points (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT    NOT NULL,
    latitude        REAL    NOT NULL,
    longitude       REAL    NOT NULL,
    mark            REAL    NOT NULL DEFAULT 0,
    industry_id     INTEGER NOT NULL REFERENCES industries(id) ON DELETE RESTRICT,
    sub_industry_id INTEGER NOT NULL REFERENCES sub_industries(id) ON DELETE RESTRICT,
    creator_id      INTEGER REFERENCES users(id) ON DELETE CASCADE,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);

CREATE INDEX idx_points_industry ON points(industry_id);
CREATE INDEX idx_points_sub_industry ON points(sub_industry_id);
CREATE INDEX idx_points_creator ON points(creator_id, created_at DESC);

CREATE TABLE marks (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    point_id     INTEGER NOT NULL REFERENCES points(id) ON DELETE CASCADE,
    user_id      INTEGER REFERENCES users(id) ON DELETE CASCADE,
    question_ids TEXT    NOT NULL DEFAULT '[]',
    answers      TEXT    NOT NULL DEFAULT '[]',
    weights      TEXT    NOT NULL DEFAULT '[]',
    comment      TEXT,
    photos       TEXT    NOT NULL DEFAULT '[]',
    total_score  REAL    NOT NULL,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);

CREATE INDEX idx_marks_point ON marks(point_id);
CREATE INDEX idx_marks_user ON marks(user_id, created_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: Achievements
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE achievements (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    name              TEXT    NOT NULL UNIQUE,
    description       TEXT    NOT NULL DEFAULT '',
    achievement_type  TEXT    NOT NULL,
    requirement_value INTEGER NOT NULL,
    xp_reward         INTEGER NOT NULL DEFAULT 0,
    created_at        INTEGER NOT NULL
);

CREATE INDEX idx_achievements_type ON achievements(achievement_type);

CREATE TABLE user_achievements (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    achievement_id INTEGER NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    progress       INTEGER NOT NULL DEFAULT 0,
    is_completed   INTEGER NOT NULL DEFAULT 0,
    completed_at   INTEGER,
    created_at     INTEGER NOT NULL,
    UNIQUE (user_id, achievement_id)
);

CREATE INDEX idx_user_achievements_completed ON user_achievements(user_id, completed_at DESC);
`
