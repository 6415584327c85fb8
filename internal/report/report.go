package report

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Event string

const (
	EventSessionCreated    Event = "session_created"
	EventIngestStarted     Event = "ingest_started"
	EventIngestFailed      Event = "ingest_failed"
	EventKBGenerated       Event = "kb_generated"
	EventKBGenFailed       Event = "kb_gen_failed"
	EventFastPathHit       Event = "fast_path_hit"
	EventGenerateAttempt   Event = "generate_attempt"
	EventGenerateRateLimit Event = "generate_rate_limited"
	EventGenerateFailed    Event = "generate_failed"
	EventGenerateEmpty     Event = "generate_empty"
	EventCooldownHit       Event = "cooldown_hit"
	EventFeedback          Event = "feedback"
)

// Reporter is the single side channel for externally observable events.
// Implementations are fire-and-forget: a failing reporter must never affect
// the answer path, so Report returns nothing.
type Reporter interface {
	Report(ctx context.Context, event Event, fields ...zap.Field)
}

type logReporter struct{}

// NewLogReporter reports events through the process logger.
func NewLogReporter() Reporter {
	return logReporter{}
}

func (logReporter) Report(ctx context.Context, event Event, fields ...zap.Field) {
	logutil.GetLogger(ctx).With(zap.String("event", string(event))).Info("report", fields...)
}

type nopReporter struct{}

func NewNopReporter() Reporter {
	return nopReporter{}
}

func (nopReporter) Report(context.Context, Event, ...zap.Field) {}
