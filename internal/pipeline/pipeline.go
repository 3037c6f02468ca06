// Package pipeline runs the acquisition → conversion → inference →
// decision cycle.
//
// One cycle means exactly one RawFrame, one input tensor population, one
// forward pass and at most one DecisionResult. There is no buffering, no
// pipelining and no concurrency across cycles: a single goroutine drives
// Run, and the engine's arena and tensors are mutated only from it. A
// cycle either completes fully or aborts at the first failing step with
// no partial state carried over.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/camera"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/classify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/engine"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/metrics"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/notify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/pixel"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

// Pipeline owns the collaborators of the decision cycle.
type Pipeline struct {
	source camera.Source
	eng    *engine.Engine
	policy classify.Policy
	sink   notify.Sink
	m      *metrics.Metrics

	latest atomic.Pointer[types.DecisionResult]

	// Snapshot of the last acquired frame for the debug preview; kept
	// separate from the cycle's frame, which goes back to the source
	// right after conversion.
	snapMu sync.Mutex
	snap   *types.RawFrame
}

// New wires a pipeline. The engine must already be set up.
func New(source camera.Source, eng *engine.Engine, policy classify.Policy, sink notify.Sink, m *metrics.Metrics) *Pipeline {
	return &Pipeline{source: source, eng: eng, policy: policy, sink: sink, m: m}
}

// RunCycle executes one decision cycle. On any per-cycle failure the
// cycle is abandoned: no DecisionResult is produced and no retry happens
// here; the cadence loop simply tries again next tick.
func (p *Pipeline) RunCycle() (types.DecisionResult, error) {
	start := time.Now()

	frame, err := p.source.Acquire()
	if err != nil {
		p.m.AcquireErrors.Add(1)
		p.m.CyclesAborted.Add(1)
		return types.DecisionResult{}, fmt.Errorf("acquisition failed: %w", err)
	}

	p.snapshot(frame)

	// The frame goes back to the source the moment conversion has read
	// it; it must not be touched after this block.
	convErr := pixel.Convert(frame, p.eng.InputTensor())
	frameNum, capturedAt := frame.FrameNum, frame.Timestamp
	p.source.Release(frame)
	if convErr != nil {
		p.m.ConvertErrors.Add(1)
		p.m.CyclesAborted.Add(1)
		return types.DecisionResult{}, fmt.Errorf("conversion failed: %w", convErr)
	}

	inferStart := time.Now()
	pair, err := p.eng.Infer()
	if err != nil {
		p.m.InferErrors.Add(1)
		p.m.CyclesAborted.Add(1)
		return types.DecisionResult{}, err
	}
	p.m.UpdateInferLatency(time.Since(inferStart))

	closed := classify.Dequantize(pair.Closed, pair.Quant)
	open := classify.Dequantize(pair.Open, pair.Quant)
	state := p.policy.Decide(closed)

	result := types.DecisionResult{
		State:       state,
		StateName:   state.String(),
		ClosedScore: closed,
		OpenScore:   open,
		RawClosed:   pair.Closed,
		RawOpen:     pair.Open,
		FrameNum:    frameNum,
		CapturedAt:  capturedAt,
		DecidedAt:   time.Now(),
	}

	p.m.CyclesRun.Add(1)
	if state == types.DoorOpen {
		p.m.DecisionsOpen.Add(1)
	} else {
		p.m.DecisionsClosed.Add(1)
	}
	p.m.RecordScores(closed, open, state == types.DoorOpen)
	p.m.UpdateCycleLatency(time.Since(start))

	p.latest.Store(&result)
	p.sink.Notify(result)
	return result, nil
}

// Run executes one cycle per tick until the context is cancelled. Failed
// cycles are logged and skipped; the cadence is the only retry mechanism.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	logger.Info("Pipeline", "Running one cycle every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Pipeline", "Stopping")
			return
		case <-ticker.C:
			if _, err := p.RunCycle(); err != nil {
				if errors.Is(err, camera.ErrNoFrame) {
					logger.Debug("Pipeline", "Cycle skipped: %v", err)
				} else {
					logger.Warn("Pipeline", "Cycle abandoned: %v", err)
				}
			}
		}
	}
}

// LatestDecision returns the most recent completed decision, or nil
// before the first completed cycle.
func (p *Pipeline) LatestDecision() *types.DecisionResult {
	return p.latest.Load()
}

// snapshot copies the frame for the preview endpoint without retaining
// the source's buffer.
func (p *Pipeline) snapshot(frame *types.RawFrame) {
	p.snapMu.Lock()
	defer p.snapMu.Unlock()
	if p.snap == nil || cap(p.snap.Pix) < len(frame.Pix) {
		p.snap = &types.RawFrame{Pix: make([]byte, len(frame.Pix))}
	}
	p.snap.Pix = p.snap.Pix[:len(frame.Pix)]
	copy(p.snap.Pix, frame.Pix)
	p.snap.Width = frame.Width
	p.snap.Height = frame.Height
	p.snap.Timestamp = frame.Timestamp
	p.snap.FrameNum = frame.FrameNum
}

// LatestFrame returns a copy of the last acquired frame, or nil before
// the first acquisition.
func (p *Pipeline) LatestFrame() *types.RawFrame {
	p.snapMu.Lock()
	defer p.snapMu.Unlock()
	if p.snap == nil {
		return nil
	}
	out := &types.RawFrame{
		Pix:       append([]byte(nil), p.snap.Pix...),
		Width:     p.snap.Width,
		Height:    p.snap.Height,
		Timestamp: p.snap.Timestamp,
		FrameNum:  p.snap.FrameNum,
	}
	return out
}
