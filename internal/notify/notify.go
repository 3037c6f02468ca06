// Package notify delivers completed decision results to external sinks.
// Delivery is best-effort: a sink failure never aborts a decision cycle.
package notify

import (
	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// Sink receives one DecisionResult per completed cycle.
type Sink interface {
	Notify(types.DecisionResult) error
	Close() error
}

// LogSink writes every decision to the service log with both the raw and
// de-quantized scores, the observability contract for completed cycles.
type LogSink struct{}

// Notify logs the decision.
func (LogSink) Notify(r types.DecisionResult) error {
	logger.Info("Decision", "%s closed=%.4f open=%.4f (raw closed=%d open=%d, frame %d)",
		r.State, r.ClosedScore, r.OpenScore, r.RawClosed, r.RawOpen, r.FrameNum)
	return nil
}

// Close is a no-op.
func (LogSink) Close() error { return nil }

// Fanout delivers to every sink in order, logging failures and moving on.
type Fanout []Sink

// Notify delivers to all sinks; it never returns an error itself.
func (f Fanout) Notify(r types.DecisionResult) error {
	for _, s := range f {
		if err := s.Notify(r); err != nil {
			logger.Warn("Notify", "Sink delivery failed: %v", err)
		}
	}
	return nil
}

// Close closes all sinks.
func (f Fanout) Close() error {
	for _, s := range f {
		s.Close()
	}
	return nil
}
