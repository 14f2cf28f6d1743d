package crawl

import (
	"context"
	"time"
)

// Frontier is the persisted collection of URLs eligible for selection.
type Frontier interface {
	// Next returns the URL with the fewest eligible attempts, ties broken by
	// ascending id. Returns ErrFrontierEmpty when nothing is selectable.
	Next(ctx context.Context) (URL, error)
	// BulkSave inserts a batch of URLs. Per-row atomicity only: rows committed
	// before a failure stay committed.
	BulkSave(ctx context.Context, urls []URL) error
	// LoadFromFile reads one URL string per line, parses and bulk-saves them,
	// returning the number of rows inserted. The first malformed line aborts
	// the load.
	LoadFromFile(ctx context.Context, path string) (int, error)
}

// SessionStore persists visit attempts.
type SessionStore interface {
	// NewSession opens a pending session referencing url and returns it with
	// the store-assigned identifier and column defaults populated.
	NewSession(ctx context.Context, url *URL) (*Session, error)
	// Save upserts the session by identifier, overwriting all columns.
	Save(ctx context.Context, sess *Session) error
}

// Fetcher performs one HTTP fetch with the given identity.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Bot is the narrow view of the scheduler handed to Controller hooks.
type Bot interface {
	Sessions() SessionStore
	Clock() Clock
}

// Controller is the caller-supplied extension point. All three hooks run
// synchronously on the scheduling goroutine and must not block; a slow hook
// stalls the loop.
type Controller interface {
	// CanRun gates a cycle after the schedule window check passes. Returning
	// false skips the cycle; it is not an error.
	CanRun(rctx *RunContext, bot Bot) bool
	// OnFetch classifies a completed fetch. The core sets nothing itself: the
	// hook is responsible for State, Result and ResponseCode, and for
	// persisting the session through bot.Sessions().
	OnFetch(ctx context.Context, sess *Session, bot Bot)
	// OnExcept handles a failure before or during the fetch. sess is nil when
	// the failure happened before a session was opened. Persisting anything is
	// at the hook's discretion.
	OnExcept(ctx context.Context, err error, sess *Session, bot Bot)
}
