package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/patrol-crawler/internal/crawl"
)

// insertSession opens a pending row and reads back the column defaults in one
// round trip, so the returned Session reflects exactly what the table holds.
const insertSession = `
INSERT INTO sessions (url_id)
VALUES ($1)
RETURNING id, url_id, start_time, end_time, state, response_code, result`

const upsertSession = `
INSERT INTO sessions (id, url_id, start_time, end_time, state, response_code, result)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	url_id        = EXCLUDED.url_id,
	start_time    = EXCLUDED.start_time,
	end_time      = EXCLUDED.end_time,
	state         = EXCLUDED.state,
	response_code = EXCLUDED.response_code,
	result        = EXCLUDED.result`

// SessionStore implements crawl.SessionStore on Postgres.
type SessionStore struct {
	pool Pool
}

// NewSessionStore wraps an existing pool.
func NewSessionStore(pool Pool) (*SessionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &SessionStore{pool: pool}, nil
}

// NewSession inserts a pending session referencing url and returns it bound
// to the assigned identifier. The URL travels by reference; URLID is frozen
// here even if the caller later mutates the URL for display.
func (s *SessionStore) NewSession(ctx context.Context, url *crawl.URL) (*crawl.Session, error) {
	if url == nil || url.ID == 0 {
		return nil, fmt.Errorf("new session: url must be stored first")
	}
	sess := &crawl.Session{URL: url}
	err := s.pool.QueryRow(ctx, insertSession, url.ID).Scan(
		&sess.ID, &sess.URLID, &sess.StartTime, &sess.EndTime,
		&sess.State, &sess.ResponseCode, &sess.Result,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session for url %d: %w", url.ID, err)
	}
	return sess, nil
}

// Save upserts the session by identifier, overwriting every column. Sessions
// are always created through NewSession first, so in practice this is an
// update.
func (s *SessionStore) Save(ctx context.Context, sess *crawl.Session) error {
	if sess == nil || sess.ID == 0 {
		return fmt.Errorf("save session: missing identifier")
	}
	_, err := s.pool.Exec(ctx, upsertSession,
		sess.ID, sess.URLID, sess.StartTime, sess.EndTime,
		sess.State, sess.ResponseCode, sess.Result,
	)
	if err != nil {
		return fmt.Errorf("save session %d: %w", sess.ID, err)
	}
	return nil
}
