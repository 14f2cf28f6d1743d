package crawl

import "sync"

// RunContext is the process-wide, in-memory log of completed sessions. It
// backs custom CanRun policies (back-off, daily quotas) and carries no
// persistence guarantee: it is empty again after a restart.
type RunContext struct {
	mu      sync.Mutex
	history []*Session
}

// NewRunContext creates an empty RunContext.
func NewRunContext() *RunContext {
	return &RunContext{}
}

// Append records a finished session.
func (c *RunContext) Append(sess *Session) {
	if sess == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, sess)
}

// History returns a snapshot of the recorded sessions, oldest first.
func (c *RunContext) History() []*Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Session(nil), c.history...)
}

// Len reports how many sessions have completed so far.
func (c *RunContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
