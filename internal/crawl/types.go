// Package crawl defines core types shared across subsystems.
package crawl

import (
	"errors"
	"net/http"
	"time"
)

// Session state codes persisted in the sessions table. The code space above
// these values is caller-defined; Controllers may introduce their own.
const (
	StatePending = 100
	StateDone    = 200
)

// ResultDone is the conventional classification for a completed fetch.
const ResultDone = 200

// RetryableResultMax is the highest result value that still counts as an
// eligible attempt during frontier selection. Results above it are terminal
// and retire the URL once no eligible sessions remain.
const RetryableResultMax = 600

// Sentinel errors surfaced by the stores.
var (
	// ErrFrontierEmpty is returned by Frontier.Next when no URL is eligible.
	ErrFrontierEmpty = errors.New("frontier is empty")
	// ErrDuplicateURL is returned when an insert collides on (path, query).
	ErrDuplicateURL = errors.New("url already stored for (path, query)")
)

// URL is one frontier entry, decomposed into its structural fields.
// ID is assigned by the store on first insert and is zero before that.
type URL struct {
	ID        int64
	Scheme    string
	Host      string
	Path      string
	Query     string
	Fragment  string
	Invalid   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session records one visit attempt against a URL.
//
// Result is nil while the attempt is pending; the Controller sets it exactly
// once when classifying the outcome. URL is carried by reference for the
// Controller's convenience and is never written back; URLID is frozen at
// creation.
type Session struct {
	ID           int64
	URLID        int64
	StartTime    time.Time
	EndTime      time.Time
	State        int
	ResponseCode int
	Result       *int

	// URL is the frontier entry this session was opened for. Not persisted.
	URL *URL
	// Response holds the fetch outcome before OnFetch runs. Not persisted.
	Response *FetchResponse
}

// SetResult stores v as the session's classification.
func (s *Session) SetResult(v int) {
	s.Result = &v
}

// FetchRequest captures everything needed to fetch one URL.
type FetchRequest struct {
	URL       string
	UserAgent string
	// Proxy is the proxy endpoint for this request, empty for a direct fetch.
	Proxy   string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
