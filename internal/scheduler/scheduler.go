// Package scheduler implements the continuously re-arming crawl cycle.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/patrol-crawler/internal/crawl"
	"github.com/JakeFAU/patrol-crawler/internal/identity"
	"github.com/JakeFAU/patrol-crawler/internal/progress"
	"github.com/JakeFAU/patrol-crawler/internal/schedule"
)

// Config controls Scheduler behavior.
type Config struct {
	// Window is the active schedule plus the cadence between cycle starts.
	Window schedule.Window
	// SkipDelay spaces re-arms after a gate or policy skip so a closed window
	// does not spin (default 1s).
	SkipDelay time.Duration
	// FetchTimeout bounds each dispatched fetch; expiry takes the exception
	// path (default 30s).
	FetchTimeout time.Duration
}

const (
	defaultSkipDelay    = time.Second
	defaultFetchTimeout = 30 * time.Second
)

// completion is what a detached fetch reports back to the scheduling
// goroutine once the network call finishes either way.
type completion struct {
	cycleID uuid.UUID
	sess    *crawl.Session
	resp    crawl.FetchResponse
	err     error
}

// Scheduler drives the IDLE → GATE_CHECK → (SKIP | DEQUEUE) → FETCHING → DONE
// cycle. One goroutine makes every scheduling decision and runs every
// Controller hook; dispatched fetches only do network I/O and report back on
// a channel, so the loop never blocks on a fetch and the rotator cursor plus
// the run context stay single-writer.
type Scheduler struct {
	cfg        Config
	frontier   crawl.Frontier
	sessions   crawl.SessionStore
	fetcher    crawl.Fetcher
	rotator    *identity.Rotator
	controller crawl.Controller
	clock      crawl.Clock
	rctx       *crawl.RunContext
	emitter    progress.Emitter
	logger     *zap.Logger

	completions chan completion
	inflight    int
}

// New constructs a Scheduler.
func New(
	frontier crawl.Frontier,
	sessions crawl.SessionStore,
	fetcher crawl.Fetcher,
	rotator *identity.Rotator,
	controller crawl.Controller,
	clock crawl.Clock,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Scheduler {
	if cfg.SkipDelay <= 0 {
		cfg.SkipDelay = defaultSkipDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:         cfg,
		frontier:    frontier,
		sessions:    sessions,
		fetcher:     fetcher,
		rotator:     rotator,
		controller:  controller,
		clock:       clock,
		rctx:        crawl.NewRunContext(),
		emitter:     emitter,
		logger:      logger,
		completions: make(chan completion, 16),
	}
}

// Sessions implements crawl.Bot for Controller hooks.
func (s *Scheduler) Sessions() crawl.SessionStore {
	return s.sessions
}

// Clock implements crawl.Bot for Controller hooks.
func (s *Scheduler) Clock() crawl.Clock {
	return s.clock
}

// RunContext exposes the in-memory session history.
func (s *Scheduler) RunContext() *crawl.RunContext {
	return s.rctx
}

// Run re-arms cycles until ctx is canceled. Nothing inside a cycle can
// terminate the loop; per-cycle failures are routed to the Controller's
// OnExcept hook. On cancellation Run settles outstanding fetches before
// returning ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		zap.String("window_start", s.cfg.Window.Start.String()),
		zap.String("window_end", s.cfg.Window.End.String()),
		zap.String("weekdays", s.cfg.Window.Weekdays.String()),
		zap.Duration("every", s.cfg.Window.Every),
	)
	for {
		if err := s.cycle(ctx); err != nil {
			s.drain()
			s.logger.Info("scheduler stopped", zap.Error(err))
			return err
		}
	}
}

// cycle executes one pass of the state machine. A non-nil return means the
// context finished; everything else re-arms.
func (s *Scheduler) cycle(ctx context.Context) error {
	cycleID := newCycleID()
	now := s.clock.Now()

	// GATE_CHECK
	if !s.cfg.Window.InActiveWindow(now) {
		s.skip(cycleID, "outside schedule window")
		return s.wait(ctx, s.cfg.SkipDelay)
	}
	if !s.controller.CanRun(s.rctx, s) {
		s.skip(cycleID, "controller declined")
		return s.wait(ctx, s.cfg.SkipDelay)
	}

	// The cadence is a pre-fetch delay: consecutive cycles are spaced by this
	// wait regardless of how long any fetch runs.
	if err := s.wait(ctx, s.cfg.Window.Every); err != nil {
		return err
	}

	// DEQUEUE
	url, err := s.frontier.Next(ctx)
	if err != nil {
		s.except(ctx, cycleID, err, nil)
		return nil
	}
	sess, err := s.sessions.NewSession(ctx, &url)
	if err != nil {
		s.except(ctx, cycleID, err, nil)
		return nil
	}

	// The cursor advances here, on the scheduling goroutine, so proxy order
	// matches dispatch order even when completions arrive out of order.
	proxy := s.rotator.NextProxy()
	ua := s.rotator.NextUserAgent()

	s.emitter.Emit(progress.Event{
		CycleID: cycleID,
		TS:      now,
		Stage:   progress.StageCycleDispatch,
		Site:    url.Host,
		URL:     url.String(),
	})
	s.logger.Debug("dispatching fetch",
		zap.String("cycle_id", cycleID.String()),
		zap.Int64("url_id", url.ID),
		zap.String("url", url.String()),
		zap.String("proxy", proxy),
	)

	// FETCHING: detached, never awaited by the loop.
	s.inflight++
	go s.fetch(ctx, cycleID, sess, proxy, ua)
	return nil
}

// fetch runs in its own goroutine and performs only the network call. The
// completion is handed back to the scheduling goroutine, which owns all
// Controller invocations.
func (s *Scheduler) fetch(ctx context.Context, cycleID uuid.UUID, sess *crawl.Session, proxy, ua string) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
	defer cancel()
	resp, err := s.fetcher.Fetch(fctx, crawl.FetchRequest{
		URL:       sess.URL.String(),
		UserAgent: ua,
		Proxy:     proxy,
	})
	s.completions <- completion{cycleID: cycleID, sess: sess, resp: resp, err: err}
}

// wait sleeps for d while continuing to settle fetch completions, so the
// cadence and skip delays are suspension points rather than blocking calls.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-s.completions:
			s.settle(ctx, c)
		case <-timer.C:
			return nil
		}
	}
}

// settle routes one fetch completion to the Controller and records it in the
// run context. DONE transition of the state machine.
func (s *Scheduler) settle(ctx context.Context, c completion) {
	s.inflight--
	sess := c.sess
	if c.err != nil {
		s.emitter.Emit(progress.Event{
			CycleID: c.cycleID,
			TS:      s.clock.Now(),
			Stage:   progress.StageFetchError,
			Site:    sess.URL.Host,
			URL:     sess.URL.String(),
			Note:    c.err.Error(),
		})
		s.logger.Warn("fetch failed",
			zap.String("cycle_id", c.cycleID.String()),
			zap.Int64("session_id", sess.ID),
			zap.Error(c.err),
		)
		s.controller.OnExcept(ctx, c.err, sess, s)
		s.rctx.Append(sess)
		return
	}
	resp := c.resp
	sess.Response = &resp
	s.emitter.Emit(progress.Event{
		CycleID:     c.cycleID,
		TS:          s.clock.Now(),
		Stage:       progress.StageSessionDone,
		Site:        sess.URL.Host,
		URL:         resp.URL,
		StatusClass: progress.ClassifyStatus(resp.StatusCode),
		Dur:         resp.Duration,
	})
	s.controller.OnFetch(ctx, sess, s)
	s.rctx.Append(sess)
}

// except handles pre-fetch failures (selection, session creation). SKIP
// transition of the error path; the loop re-arms afterwards.
func (s *Scheduler) except(ctx context.Context, cycleID uuid.UUID, err error, sess *crawl.Session) {
	s.emitter.Emit(progress.Event{
		CycleID: cycleID,
		TS:      s.clock.Now(),
		Stage:   progress.StageCycleError,
		Note:    err.Error(),
	})
	s.logger.Warn("cycle failed before dispatch",
		zap.String("cycle_id", cycleID.String()),
		zap.Error(err),
	)
	s.controller.OnExcept(ctx, err, sess, s)
}

// skip logs and emits a gate or policy skip.
func (s *Scheduler) skip(cycleID uuid.UUID, reason string) {
	s.emitter.Emit(progress.Event{
		CycleID: cycleID,
		TS:      s.clock.Now(),
		Stage:   progress.StageCycleSkip,
		Note:    reason,
	})
	s.logger.Debug("cycle skipped",
		zap.String("cycle_id", cycleID.String()),
		zap.String("reason", reason),
	)
}

// drain settles fetches still in flight during shutdown. Their contexts are
// no longer canceled mid-request (fetch detaches with WithoutCancel and the
// fetch timeout still applies), so each reports back within FetchTimeout.
func (s *Scheduler) drain() {
	for s.inflight > 0 {
		c := <-s.completions
		s.settle(context.Background(), c)
	}
}

func newCycleID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
