package engine

import (
	"fmt"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/pixel"
)

// Options configures an Engine.
type Options struct {
	Width     int // expected input width
	Height    int // expected input height
	ArenaKiB  int // arena size in KiB
	Threads   int // backend worker threads
	ClosedIdx int // output index of the closed-class score
	OpenIdx   int // output index of the open-class score

	// RequiredOps is the operator set the deployed graph needs.
	// Defaults to DoorModelOps.
	RequiredOps []OpCode
}

// Engine wraps a Backend with the process-lifetime state the pipeline
// needs: the model blob, the tensor arena and the bound input tensor.
// All engine state lives here rather than in package globals so ownership
// is explicit; a single goroutine drives it.
type Engine struct {
	backend Backend
	opts    Options
	arena   *Arena
	input   []int8
	ready   bool
}

// New returns an unloaded Engine around the given backend.
func New(backend Backend, opts Options) *Engine {
	if opts.RequiredOps == nil {
		opts.RequiredOps = DoorModelOps
	}
	return &Engine{backend: backend, opts: opts}
}

// Setup performs the one-time boot sequence: model format validation,
// operator registration check, arena allocation, tensor binding and a
// shape-compatibility check of the bound input tensor against the
// configured frame geometry. Every error here is fatal to the pipeline.
// Setup is idempotent; a second call on a ready engine is a no-op.
func (e *Engine) Setup(model []byte) error {
	if e.ready {
		return nil
	}

	if err := ValidateModel(model); err != nil {
		return err
	}

	if err := checkOps(e.opts.RequiredOps, e.backend.SupportedOps()); err != nil {
		return err
	}

	arena, err := NewArena(e.opts.ArenaKiB * 1024)
	if err != nil {
		return fmt.Errorf("arena allocation failed: %w", err)
	}

	if err := e.backend.Load(model, arena, e.opts.Threads); err != nil {
		return fmt.Errorf("backend %s failed to load model: %w", e.backend.Name(), err)
	}

	w, h, c := e.backend.InputShape()
	if w != e.opts.Width || h != e.opts.Height || c != pixel.Channels {
		return fmt.Errorf("model wants %dx%dx%d input, pipeline is configured for %dx%dx%d",
			w, h, c, e.opts.Width, e.opts.Height, pixel.Channels)
	}

	input := e.backend.Input()
	if want := pixel.TensorLen(w, h); len(input) != want {
		return fmt.Errorf("bound input tensor has %d elements, want %d", len(input), want)
	}

	e.arena = arena
	e.input = input
	e.ready = true

	logger.Info("Engine", "Model loaded on %s: input %dx%dx%d, arena %d KiB (%d bytes used)",
		e.backend.Name(), w, h, c, e.opts.ArenaKiB, arena.Used())
	return nil
}

// InputTensor returns the live input tensor for in-place population.
func (e *Engine) InputTensor() []int8 { return e.input }

// Infer runs one forward pass and returns the two quantized class scores.
// A backend execution fault abandons the cycle; no partial result is
// produced and no retry happens here.
func (e *Engine) Infer() (ScorePair, error) {
	if !e.ready {
		return ScorePair{}, fmt.Errorf("engine not set up")
	}

	if err := e.backend.Invoke(); err != nil {
		return ScorePair{}, fmt.Errorf("forward pass failed: %w", err)
	}

	out, quant, err := e.backend.Outputs()
	if err != nil {
		return ScorePair{}, fmt.Errorf("failed to read outputs: %w", err)
	}
	if e.opts.ClosedIdx >= len(out) || e.opts.OpenIdx >= len(out) {
		return ScorePair{}, fmt.Errorf("output tensor has %d elements, need indices %d and %d",
			len(out), e.opts.ClosedIdx, e.opts.OpenIdx)
	}

	return ScorePair{
		Closed: out[e.opts.ClosedIdx],
		Open:   out[e.opts.OpenIdx],
		Quant:  quant,
	}, nil
}

// Close releases the backend. The arena is garbage once the engine goes.
func (e *Engine) Close() error {
	e.ready = false
	return e.backend.Close()
}

// checkOps verifies every required operator is registered. A superset is
// fine, a missing kernel is a fatal setup error.
func checkOps(required, supported []OpCode) error {
	have := make(map[OpCode]bool, len(supported))
	for _, op := range supported {
		have[op] = true
	}
	for _, op := range required {
		if !have[op] {
			return fmt.Errorf("backend does not register required operator %s", op)
		}
	}
	return nil
}
