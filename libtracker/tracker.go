// Package libtracker provides lightweight activity tracking for service
// operations. Services are wrapped by decorators that call Start around each
// call; the tracker reports errors and state changes to whatever sink the
// implementation targets (slog, fan-out chains, or nothing).
package libtracker

import (
	"context"
	"log/slog"
	"time"
)

// ActivityTracker records the lifecycle of one operation. Start returns three
// callbacks: reportErr for failures, reportChange for successful state
// changes (entity id plus a payload describing the change), and end which
// must always run (defer it).
type ActivityTracker interface {
	Start(ctx context.Context, operation string, subject string, kvArgs ...any) (reportErr func(error), reportChange func(id string, data any), end func())
}

// NoopTracker discards all activity. Use in tests and as the default when no
// sink is configured.
type NoopTracker struct{}

func (NoopTracker) Start(ctx context.Context, operation string, subject string, kvArgs ...any) (func(error), func(string, any), func()) {
	return func(error) {}, func(string, any) {}, func() {}
}

type logActivityTracker struct {
	logger *slog.Logger
}

// NewLogActivityTracker returns a tracker that writes operation start, error,
// change, and duration records through the given slog logger.
func NewLogActivityTracker(logger *slog.Logger) ActivityTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &logActivityTracker{logger: logger}
}

func (t *logActivityTracker) Start(ctx context.Context, operation string, subject string, kvArgs ...any) (func(error), func(string, any), func()) {
	start := time.Now()
	attrs := make([]any, 0, len(kvArgs)+6)
	attrs = append(attrs, "operation", operation, "subject", subject)
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok && reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}
	attrs = append(attrs, kvArgs...)

	logger := t.logger.With(attrs...)
	logger.DebugContext(ctx, "activity started")

	reportErr := func(err error) {
		if err == nil {
			return
		}
		logger.ErrorContext(ctx, "activity failed", "error", err.Error())
	}
	reportChange := func(id string, data any) {
		logger.InfoContext(ctx, "state changed", "entity_id", id, "change", data)
	}
	end := func() {
		logger.DebugContext(ctx, "activity completed", "duration", time.Since(start).String())
	}
	return reportErr, reportChange, end
}

// ChainedTracker fans out to every tracker in the slice.
type ChainedTracker []ActivityTracker

func (c ChainedTracker) Start(ctx context.Context, operation string, subject string, kvArgs ...any) (func(error), func(string, any), func()) {
	reportErrs := make([]func(error), 0, len(c))
	reportChanges := make([]func(string, any), 0, len(c))
	ends := make([]func(), 0, len(c))
	for _, tracker := range c {
		reportErr, reportChange, end := tracker.Start(ctx, operation, subject, kvArgs...)
		reportErrs = append(reportErrs, reportErr)
		reportChanges = append(reportChanges, reportChange)
		ends = append(ends, end)
	}
	return func(err error) {
			for _, f := range reportErrs {
				f(err)
			}
		}, func(id string, data any) {
			for _, f := range reportChanges {
				f(id, data)
			}
		}, func() {
			for _, f := range ends {
				f()
			}
		}
}

var (
	_ ActivityTracker = NoopTracker{}
	_ ActivityTracker = (*logActivityTracker)(nil)
	_ ActivityTracker = ChainedTracker{}
)
