package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: TAXONOMY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS industries (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sub_industries (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    industry_id BIGINT NOT NULL REFERENCES industries(id) ON DELETE CASCADE,
    base_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_sub_industry_name UNIQUE (industry_id, name)
);

CREATE TABLE IF NOT EXISTS criteria (
    id BIGSERIAL PRIMARY KEY,
    text VARCHAR(255) NOT NULL,
    industry_id BIGINT NOT NULL REFERENCES industries(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_criteria_text UNIQUE (industry_id, text)
);

CREATE INDEX IF NOT EXISTS idx_sub_industries_industry ON sub_industries(industry_id);
CREATE INDEX IF NOT EXISTS idx_criteria_industry ON criteria(industry_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: USERS, POINTS, MARKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(64) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    avatar_url TEXT,
    avatar_history TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_users_xp ON users(xp DESC);

CREATE TABLE IF NOT EXISTS points (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    mark DOUBLE PRECISION NOT NULL DEFAULT 0,
    industry_id BIGINT NOT NULL REFERENCES industries(id) ON DELETE RESTRICT,
    sub_industry_id BIGINT NOT NULL REFERENCES sub_industries(id) ON DELETE RESTRICT,
    creator_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_latitude CHECK (latitude BETWEEN -90 AND 90),
    CONSTRAINT valid_longitude CHECK (longitude BETWEEN -180 AND 180)
);

CREATE INDEX IF NOT EXISTS idx_points_industry ON points(industry_id);
CREATE INDEX IF NOT EXISTS idx_points_sub_industry ON points(sub_industry_id);
CREATE INDEX IF NOT EXISTS idx_points_creator ON points(creator_id, created_at DESC);

CREATE TABLE IF NOT EXISTS marks (
    id BIGSERIAL PRIMARY KEY,
    point_id BIGINT NOT NULL REFERENCES points(id) ON DELETE CASCADE,
    user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
    question_ids BIGINT[] NOT NULL DEFAULT '{}',
    answers INTEGER[] NOT NULL DEFAULT '{}',
    weights DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    comment VARCHAR(2000),
    photos TEXT[] NOT NULL DEFAULT '{}',
    total_score DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_marks_point ON marks(point_id);
CREATE INDEX IF NOT EXISTS idx_marks_user ON marks(user_id, created_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS achievements (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    achievement_type VARCHAR(30) NOT NULL,
    requirement_value INTEGER NOT NULL,
    xp_reward INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_achievement_type CHECK (achievement_type IN ('marks_count', 'points_count', 'marks_streak')),
    CONSTRAINT valid_xp_reward CHECK (xp_reward >= 0)
);

CREATE INDEX IF NOT EXISTS idx_achievements_type ON achievements(achievement_type);

CREATE TABLE IF NOT EXISTS user_achievements (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    progress INTEGER NOT NULL DEFAULT 0,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_user_achievement UNIQUE (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_completed
    ON user_achievements(user_id, completed_at DESC) WHERE is_completed;
`
