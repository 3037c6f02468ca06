package engine

import (
	"fmt"

	"github.com/mattn/go-tflite"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/classify"
	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
)

// TFLite runs the model on the TensorFlow Lite C runtime. The runtime
// registers the full builtin operator set, a superset of DoorModelOps.
type TFLite struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
	input   *tflite.Tensor
	output  *tflite.Tensor
}

// NewTFLite returns an unloaded TFLite backend.
func NewTFLite() *TFLite { return &TFLite{} }

// Name identifies the runtime for logs.
func (t *TFLite) Name() string { return "tflite" }

// SupportedOps reports every operator this package knows about; the
// builtin resolver registers all of them.
func (t *TFLite) SupportedOps() []OpCode {
	ops := make([]OpCode, 0, len(opNames))
	for op := range opNames {
		ops = append(ops, op)
	}
	return ops
}

// Load parses the flatbuffer, builds the interpreter and binds the input
// and output tensors. The artifact is staged inside the arena so the one
// large region also holds the model bytes, which must stay alive and
// unmoved for the interpreter's lifetime.
func (t *TFLite) Load(model []byte, arena *Arena, threads int) error {
	blob, err := arena.Alloc(len(model))
	if err != nil {
		return fmt.Errorf("arena cannot hold %d byte model: %w", len(model), err)
	}
	copy(blob, model)

	t.model = tflite.NewModel(blob)
	if t.model == nil {
		return fmt.Errorf("model rejected by runtime: schema version mismatch or corrupt flatbuffer")
	}

	t.options = tflite.NewInterpreterOptions()
	t.options.SetNumThread(threads)
	t.options.SetErrorReporter(func(msg string, userData interface{}) {
		logger.Warn("TFLite", "%s", msg)
	}, nil)

	t.interp = tflite.NewInterpreter(t.model, t.options)
	if t.interp == nil {
		return fmt.Errorf("failed to create interpreter")
	}
	if status := t.interp.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	t.input = t.interp.GetInputTensor(0)
	t.output = t.interp.GetOutputTensor(0)
	if t.input == nil || t.output == nil {
		return fmt.Errorf("model graph has no bound input/output tensor")
	}
	if t.input.Type() != tflite.Int8 || t.output.Type() != tflite.Int8 {
		return fmt.Errorf("model tensors are not int8-quantized (input %v, output %v)",
			t.input.Type(), t.output.Type())
	}
	return nil
}

// InputShape reports the NHWC geometry of the bound input tensor.
func (t *TFLite) InputShape() (width, height, channels int) {
	if t.input == nil || t.input.NumDims() != 4 {
		return 0, 0, 0
	}
	return t.input.Dim(2), t.input.Dim(1), t.input.Dim(3)
}

// Input returns the interpreter-owned input buffer for in-place writes.
func (t *TFLite) Input() []int8 {
	if t.input == nil {
		return nil
	}
	return t.input.Int8s()
}

// Invoke runs one forward pass.
func (t *TFLite) Invoke() error {
	if t.interp == nil {
		return fmt.Errorf("interpreter not loaded")
	}
	if status := t.interp.Invoke(); status != tflite.OK {
		return fmt.Errorf("interpreter reported execution fault")
	}
	return nil
}

// Outputs returns the quantized output vector and its descriptor.
func (t *TFLite) Outputs() ([]int8, classify.QuantParams, error) {
	if t.output == nil {
		return nil, classify.QuantParams{}, fmt.Errorf("no output tensor bound")
	}
	q := t.output.QuantizationParams()
	return t.output.Int8s(), classify.QuantParams{Scale: q.Scale, ZeroPoint: q.ZeroPoint}, nil
}

// Close releases interpreter, options and model handles in that order.
func (t *TFLite) Close() error {
	if t.interp != nil {
		t.interp.Delete()
		t.interp = nil
	}
	if t.options != nil {
		t.options.Delete()
		t.options = nil
	}
	if t.model != nil {
		t.model.Delete()
		t.model = nil
	}
	t.input, t.output = nil, nil
	return nil
}
