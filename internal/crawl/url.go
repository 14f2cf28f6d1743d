package crawl

import (
	"fmt"
	"net/url"
)

// ParseURL decomposes a raw URL string into a URL entity.
// The string must be absolute (scheme and host present); relative references
// are rejected since the frontier cannot fetch them.
func ParseURL(raw string) (URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" {
		return URL{}, fmt.Errorf("parse url %q: missing scheme", raw)
	}
	if u.Host == "" {
		return URL{}, fmt.Errorf("parse url %q: missing host", raw)
	}
	return URL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     u.Path,
		Query:    u.RawQuery,
		Fragment: u.Fragment,
	}, nil
}

// String recomposes the structural fields into a URL string.
// An empty query or fragment produces no trailing "?" or "#", so parsing a
// string with a bare trailing separator and recomposing normalizes it away.
func (u URL) String() string {
	rebuilt := url.URL{
		Scheme:   u.Scheme,
		Host:     u.Host,
		Path:     u.Path,
		RawQuery: u.Query,
		Fragment: u.Fragment,
	}
	return rebuilt.String()
}
