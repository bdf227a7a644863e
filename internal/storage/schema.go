package storage

// postgresSchema is applied by PostgresStore.Migrate.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id          BIGSERIAL PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL,
		location    TEXT,
		description TEXT,
		job_type    TEXT,
		salary      TEXT,
		category    TEXT,
		skills      JSONB NOT NULL DEFAULT '[]'::jsonb,
		latitude    DOUBLE PRECISION,
		longitude   DOUBLE PRECISION,
		is_remote   BOOLEAN NOT NULL DEFAULT FALSE,
		posted_at   TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		raw_data    JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_created_at_idx ON jobs (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id        BIGSERIAL PRIMARY KEY,
		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS anonymous_sessions (
		session_id TEXT PRIMARY KEY,
		latitude   DOUBLE PRECISION,
		longitude  DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS occupations (
		id              BIGSERIAL PRIMARY KEY,
		preferred_label TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_occupations (
		user_id       BIGINT NOT NULL REFERENCES users (id),
		occupation_id BIGINT NOT NULL REFERENCES occupations (id),
		liked         BOOLEAN NOT NULL,
		PRIMARY KEY (user_id, occupation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_interactions (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT,
		session_id TEXT,
		job_id     BIGINT NOT NULL REFERENCES jobs (id),
		action     TEXT NOT NULL,
		sentiment  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK ((user_id IS NULL) <> (session_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS job_interactions_user_idx ON job_interactions (user_id)`,
	`CREATE INDEX IF NOT EXISTS job_interactions_session_idx ON job_interactions (session_id)`,
}

// sqliteSchema mirrors postgresSchema. Skills and raw payloads are JSON text.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL,
		location    TEXT,
		description TEXT,
		job_type    TEXT,
		salary      TEXT,
		category    TEXT,
		skills      TEXT NOT NULL DEFAULT '[]',
		latitude    REAL,
		longitude   REAL,
		is_remote   BOOLEAN NOT NULL DEFAULT 0,
		posted_at   DATETIME NOT NULL,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		raw_data    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_created_at_idx ON jobs (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude  REAL,
		longitude REAL
	)`,
	`CREATE TABLE IF NOT EXISTS anonymous_sessions (
		session_id TEXT PRIMARY KEY,
		latitude   REAL,
		longitude  REAL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS occupations (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		preferred_label TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_occupations (
		user_id       INTEGER NOT NULL REFERENCES users (id),
		occupation_id INTEGER NOT NULL REFERENCES occupations (id),
		liked         BOOLEAN NOT NULL,
		PRIMARY KEY (user_id, occupation_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_interactions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER,
		session_id TEXT,
		job_id     INTEGER NOT NULL REFERENCES jobs (id),
		action     TEXT NOT NULL,
		sentiment  TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK ((user_id IS NULL) <> (session_id IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS job_interactions_user_idx ON job_interactions (user_id)`,
	`CREATE INDEX IF NOT EXISTS job_interactions_session_idx ON job_interactions (session_id)`,
}
