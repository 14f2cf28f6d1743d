package postgres

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/patrol-crawler/internal/crawl"
)

// selectNextURL ranks URLs by their count of eligible attempts: sessions whose
// result is unset or still retryable (<= 600). The eligibility filter lives in
// the WHERE clause on purpose. A URL whose sessions all carry a terminal
// result (> 600) has no surviving join row and drops out of the frontier; a
// URL with no sessions at all survives through the NULL join row and ranks
// first with count zero. Ties break on ascending id so repeated calls against
// identical data return the same row.
const selectNextURL = `
SELECT url.id, url.scheme, url.host, url.path, url.query, url.fragment,
       url.invalid, url.created_at, url.updated_at
FROM url
LEFT JOIN sessions ON url.id = sessions.url_id
WHERE (sessions.result IS NULL OR sessions.result <= $1)
  AND url.invalid = 0
GROUP BY url.id
ORDER BY COUNT(sessions.id) ASC, url.id ASC
LIMIT 1`

const insertURL = `
INSERT INTO url (scheme, host, path, query, fragment, invalid)
VALUES ($1, $2, $3, $4, $5, $6)`

const uniqueViolationCode = "23505"

// FrontierStore implements crawl.Frontier on Postgres.
type FrontierStore struct {
	pool Pool
}

// NewFrontierStore wraps an existing pool.
func NewFrontierStore(pool Pool) (*FrontierStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &FrontierStore{pool: pool}, nil
}

// Next returns the least-tried URL, skipping retired (invalid) entries.
// Read-only; selection does not claim the row.
func (s *FrontierStore) Next(ctx context.Context) (crawl.URL, error) {
	var u crawl.URL
	err := s.pool.QueryRow(ctx, selectNextURL, crawl.RetryableResultMax).Scan(
		&u.ID, &u.Scheme, &u.Host, &u.Path, &u.Query, &u.Fragment,
		&u.Invalid, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return crawl.URL{}, crawl.ErrFrontierEmpty
	}
	if err != nil {
		return crawl.URL{}, fmt.Errorf("select next url: %w", err)
	}
	return u, nil
}

// BulkSave inserts the batch row by row. Rows committed before a failure stay
// committed; a (path, query) collision surfaces as crawl.ErrDuplicateURL.
func (s *FrontierStore) BulkSave(ctx context.Context, urls []crawl.URL) error {
	for _, u := range urls {
		_, err := s.pool.Exec(ctx, insertURL,
			u.Scheme, u.Host, u.Path, u.Query, u.Fragment, u.Invalid,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return fmt.Errorf("%w: path=%q query=%q", crawl.ErrDuplicateURL, u.Path, u.Query)
			}
			return fmt.Errorf("insert url %q: %w", u.String(), err)
		}
	}
	return nil
}

// LoadFromFile ingests one URL string per line. Blank lines are skipped; the
// first malformed line aborts the load with a parse error, an unreadable path
// with an IO error. Returns the number of rows handed to BulkSave.
func (s *FrontierStore) LoadFromFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []crawl.URL
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		u, err := crawl.ParseURL(line)
		if err != nil {
			return 0, fmt.Errorf("load %s line %d: %w", path, lineNo, err)
		}
		urls = append(urls, u)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read url file: %w", err)
	}
	if err := s.BulkSave(ctx, urls); err != nil {
		return 0, err
	}
	return len(urls), nil
}
