package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordCompile records notation compile metrics
func (m *SentryMetrics) RecordCompile(ctx context.Context, dialect string, noteCount, diagnosticCount int, duration time.Duration) {
	if !m.enabled {
		return
	}

	// Try adding data directly to the transaction span instead of creating a child span
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("notation.dialect", dialect)
		transaction.SetTag("notation.note_count", fmt.Sprintf("%d", noteCount))
		transaction.SetData("notation.note_count", noteCount)
		transaction.SetData("notation.diagnostic_count", diagnosticCount)
	}

	// Also create a child span for detailed tracking
	span := sentry.StartSpan(ctx, "notation.compile")
	defer span.Finish()

	span.SetTag("dialect", dialect)
	span.SetTag("note_count", fmt.Sprintf("%d", noteCount))

	span.SetData("note_count", noteCount)
	span.SetData("diagnostic_count", diagnosticCount)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Notation Compile: %s", dialect)
}

// RecordTransform records modulation transform metrics
func (m *SentryMetrics) RecordTransform(ctx context.Context, statementCount, noteCount, diagnosticCount int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "modulation.transform")
	defer span.Finish()

	span.SetTag("statement_count", fmt.Sprintf("%d", statementCount))

	span.SetData("statement_count", statementCount)
	span.SetData("note_count", noteCount)
	span.SetData("diagnostic_count", diagnosticCount)
	span.SetData("duration_ms", duration.Milliseconds())

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Transform: %d statements", statementCount)
}

// RecordScriptRun records a complete script run duration
func (m *SentryMetrics) RecordScriptRun(ctx context.Context, actionCount int, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "script.run")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))

	span.SetData("action_count", actionCount)
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Script Run: %t", success)
}
