package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/model"
	apperrors "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/report"
)

// NotInSourceSentinel is the literal phrase grounded prompts instruct the
// model to emit when the answer is absent from the supplied context. Callers
// may test for it verbatim.
const NotInSourceSentinel = "The answer is not available in the source."

const (
	// MsgDegraded is the terminal reply after all attempts are exhausted.
	MsgDegraded = "The service is under heavy load right now. Please try again in a minute."
	// MsgCouldNotGenerate is the reply for an empty or blocked model response.
	MsgCouldNotGenerate = "I could not generate a reply for that. Please try rephrasing your question."
)

type OrchestratorConfig struct {
	Model       string
	MaxAttempts int
	Timeout     time.Duration
}

// Orchestrator produces answers with resilience against upstream throttling:
// round-robin key rotation on every attempt, exponential backoff on
// recoverable failures, and fixed degraded replies once attempts run out.
type Orchestrator struct {
	provider Provider
	ring     *Ring
	cfg      OrchestratorConfig
	reporter report.Reporter
	sleep    func(time.Duration)
}

func NewOrchestrator(provider Provider, ring *Ring, cfg OrchestratorConfig, reporter report.Reporter) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if reporter == nil {
		reporter = report.NewNopReporter()
	}
	return &Orchestrator{
		provider: provider,
		ring:     ring,
		cfg:      cfg,
		reporter: reporter,
		sleep:    time.Sleep,
	}
}

// Generate runs the retry loop and returns the raw model text or a typed
// error. Rate-limit and transport failures back off 2^attempt+1 seconds and
// move to the next credential; empty responses are terminal immediately.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, history []model.Turn, groundingContext string) (string, error) {
	req := GenerateRequest{
		History: history,
		Prompt:  buildPrompt(prompt, groundingContext),
	}
	var lastErr error
	for attempt := 0; attempt < o.cfg.MaxAttempts; attempt++ {
		key := o.ring.Next()
		o.reporter.Report(ctx, report.EventGenerateAttempt,
			zap.Int("attempt", attempt),
			zap.String("provider", o.provider.Name()),
		)
		text, err := o.generateOnce(ctx, req, key)
		if err == nil {
			return text, nil
		}
		lastErr = err
		switch {
		case errors.Is(err, apperrors.ErrEmptyResponse):
			o.reporter.Report(ctx, report.EventGenerateEmpty, zap.Int("attempt", attempt))
			return "", err
		case errors.Is(err, apperrors.ErrRateLimited):
			o.reporter.Report(ctx, report.EventGenerateRateLimit, zap.Int("attempt", attempt))
		default:
			o.reporter.Report(ctx, report.EventGenerateFailed, zap.Int("attempt", attempt), zap.Error(err))
		}
		if attempt < o.cfg.MaxAttempts-1 {
			o.sleep(backoff(attempt))
		}
	}
	return "", fmt.Errorf("attempts exhausted: %w", lastErr)
}

// Answer is the user-facing wrapper around Generate: failures degrade to
// fixed apology messages instead of surfacing raw errors.
func (o *Orchestrator) Answer(ctx context.Context, prompt string, history []model.Turn, groundingContext string) string {
	text, err := o.Generate(ctx, prompt, history, groundingContext)
	if err == nil {
		return text
	}
	if errors.Is(err, apperrors.ErrEmptyResponse) {
		return MsgCouldNotGenerate
	}
	return MsgDegraded
}

func (o *Orchestrator) generateOnce(ctx context.Context, req GenerateRequest, key string) (string, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}
	return o.provider.Generate(ctx, o.cfg.Model, req, key)
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)+1) * time.Second
}

func buildPrompt(prompt, groundingContext string) string {
	if groundingContext == "" {
		return prompt
	}
	return fmt.Sprintf(
		"Answer the question using only the reference text below. If the answer is not present in the reference text, reply exactly: %q\n\n--- reference text ---\n%s\n--- end of reference text ---\n\nQuestion: %s",
		NotInSourceSentinel, groundingContext, prompt,
	)
}
