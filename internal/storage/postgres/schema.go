package postgres

import (
	"context"
	"fmt"
)

// Schema DDL for the frontier and session tables. Session defaults matter:
// state 100 marks a pending attempt, response_code 0 means no response yet,
// and result stays NULL until the Controller classifies the outcome.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS url (
	id          BIGSERIAL PRIMARY KEY,
	scheme      TEXT NOT NULL DEFAULT '',
	host        TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL DEFAULT '',
	query       TEXT NOT NULL DEFAULT '',
	fragment    TEXT NOT NULL DEFAULT '',
	invalid     INT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT ix_url_path_query UNIQUE (path, query)
)`,
	`CREATE INDEX IF NOT EXISTS ix_url_created_at ON url (created_at)`,
	`CREATE TABLE IF NOT EXISTS sessions (
	id            BIGSERIAL PRIMARY KEY,
	url_id        BIGINT NOT NULL REFERENCES url (id),
	start_time    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	state         INT NOT NULL DEFAULT 100,
	response_code INT NOT NULL DEFAULT 0,
	result        INT
)`,
	`CREATE INDEX IF NOT EXISTS ix_sessions_url_id_result_state ON sessions (url_id, result, state)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS sessions`,
	`DROP TABLE IF EXISTS url`,
}

// EnsureSchema creates the url and sessions tables plus their indexes if they
// do not exist yet.
func EnsureSchema(ctx context.Context, pool Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes both tables. Destructive; only the initdb --drop path
// calls it.
func DropSchema(ctx context.Context, pool Pool) error {
	for _, stmt := range dropStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	return nil
}
