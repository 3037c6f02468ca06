package engine

import (
	"strings"
	"testing"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/classify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/pixel"
)

// fakeBackend is an in-memory Backend for exercising the wrapper.
type fakeBackend struct {
	ops        []OpCode
	width      int
	height     int
	channels   int
	modelBytes int // bytes claimed from the arena during Load

	input      []int8
	out        []int8
	quant      classify.QuantParams
	invokeErr  error
	invoked    int
	loadCalled int
	closed     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		ops:      DoorModelOps,
		width:    96,
		height:   96,
		channels: 3,
		out:      []int8{120, 115},
		quant:    classify.QuantParams{Scale: 0.0161, ZeroPoint: 61},
	}
}

func (f *fakeBackend) Name() string           { return "fake" }
func (f *fakeBackend) SupportedOps() []OpCode { return f.ops }

func (f *fakeBackend) Load(model []byte, arena *Arena, threads int) error {
	f.loadCalled++
	claim := f.modelBytes
	if claim == 0 {
		claim = len(model)
	}
	if _, err := arena.Alloc(claim); err != nil {
		return err
	}
	input, err := arena.AllocInt8(pixel.TensorLen(f.width, f.height))
	if err != nil {
		return err
	}
	f.input = input
	return nil
}

func (f *fakeBackend) InputShape() (int, int, int) { return f.width, f.height, f.channels }
func (f *fakeBackend) Input() []int8               { return f.input }

func (f *fakeBackend) Invoke() error {
	f.invoked++
	return f.invokeErr
}

func (f *fakeBackend) Outputs() ([]int8, classify.QuantParams, error) {
	return f.out, f.quant, nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

// validModel is a minimal blob carrying the TFLite file identifier.
func validModel() []byte {
	return []byte{0x1c, 0x00, 0x00, 0x00, 'T', 'F', 'L', '3', 0, 0, 0, 0}
}

func defaultOpts() Options {
	return Options{Width: 96, Height: 96, ArenaKiB: 384, Threads: 1, ClosedIdx: 0, OpenIdx: 1}
}

func TestSetupAndInfer(t *testing.T) {
	fb := newFakeBackend()
	e := New(fb, defaultOpts())

	if err := e.Setup(validModel()); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := len(e.InputTensor()); got != pixel.TensorLen(96, 96) {
		t.Fatalf("input tensor length = %d", got)
	}

	pair, err := e.Infer()
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if pair.Closed != 120 || pair.Open != 115 {
		t.Errorf("pair = %+v", pair)
	}
	if pair.Quant.ZeroPoint != 61 {
		t.Errorf("quant = %+v", pair.Quant)
	}
	if fb.invoked != 1 {
		t.Errorf("invoked %d times", fb.invoked)
	}
}

func TestSetupIdempotent(t *testing.T) {
	fb := newFakeBackend()
	e := New(fb, defaultOpts())

	if err := e.Setup(validModel()); err != nil {
		t.Fatalf("first Setup: %v", err)
	}
	if err := e.Setup(validModel()); err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if fb.loadCalled != 1 {
		t.Errorf("Load called %d times, want 1", fb.loadCalled)
	}
}

func TestSetupRejectsBadModel(t *testing.T) {
	e := New(newFakeBackend(), defaultOpts())

	if err := e.Setup([]byte("nope")); err == nil {
		t.Error("short blob accepted")
	}
	if err := e.Setup([]byte("xxxxJUNKxxxxxxxx")); err == nil {
		t.Error("wrong identifier accepted")
	}
}

func TestSetupRejectsMissingOperator(t *testing.T) {
	fb := newFakeBackend()
	fb.ops = []OpCode{OpConv2D, OpReshape} // subset, missing kernels
	e := New(fb, defaultOpts())

	err := e.Setup(validModel())
	if err == nil {
		t.Fatal("backend with missing kernels accepted")
	}
	if !strings.Contains(err.Error(), "operator") {
		t.Errorf("error does not name the operator gap: %v", err)
	}
}

func TestSetupRejectsShapeMismatch(t *testing.T) {
	fb := newFakeBackend()
	fb.width, fb.height = 160, 120
	e := New(fb, defaultOpts())

	if err := e.Setup(validModel()); err == nil {
		t.Fatal("geometry mismatch accepted")
	}
}

func TestSetupFailsWhenArenaTooSmall(t *testing.T) {
	fb := newFakeBackend()
	fb.modelBytes = 2 * 1024 * 1024 // model cannot fit the configured arena
	opts := defaultOpts()
	opts.ArenaKiB = 64
	e := New(fb, opts)

	if err := e.Setup(validModel()); err == nil {
		t.Fatal("oversized model accepted into small arena")
	}
}

func TestInferPropagatesInvokeFault(t *testing.T) {
	fb := newFakeBackend()
	e := New(fb, defaultOpts())
	if err := e.Setup(validModel()); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	fb.invokeErr = errFault
	if _, err := e.Infer(); err == nil {
		t.Fatal("invoke fault swallowed")
	}
}

var errFault = &backendFault{}

type backendFault struct{}

func (*backendFault) Error() string { return "simulated execution fault" }
