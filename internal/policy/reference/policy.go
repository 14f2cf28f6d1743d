// Package reference holds the default Controller implementation.
package reference

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/patrol-crawler/internal/crawl"
)

// Controller is the stock policy: every cycle may run, and any received HTTP
// response counts as a completed visit regardless of status code. Callers
// wanting stricter semantics (treat 5xx as retryable, back off after
// consecutive failures) supply their own Controller.
type Controller struct {
	logger *zap.Logger
}

// New creates the reference Controller.
func New(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{logger: logger}
}

// CanRun always permits the cycle.
func (c *Controller) CanRun(_ *crawl.RunContext, _ crawl.Bot) bool {
	return true
}

// OnFetch marks the session done (state 200, result 200), records the
// protocol status code, stamps the end time and persists the session.
func (c *Controller) OnFetch(ctx context.Context, sess *crawl.Session, bot crawl.Bot) {
	sess.State = crawl.StateDone
	sess.SetResult(crawl.ResultDone)
	if sess.Response != nil {
		sess.ResponseCode = sess.Response.StatusCode
	}
	sess.EndTime = bot.Clock().Now()
	if err := bot.Sessions().Save(ctx, sess); err != nil {
		c.logger.Error("save session failed",
			zap.Int64("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

// OnExcept only logs. The session, when there is one, stays pending so the
// frontier re-selects its URL on a later cycle.
func (c *Controller) OnExcept(_ context.Context, err error, sess *crawl.Session, _ crawl.Bot) {
	fields := []zap.Field{zap.Error(err)}
	if sess != nil {
		fields = append(fields, zap.Int64("session_id", sess.ID))
	}
	c.logger.Warn("crawl attempt failed", fields...)
}
