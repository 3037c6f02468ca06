// Package engine owns the tensor arena and the loaded door-status model,
// and runs one forward pass per decision cycle.
//
// The concrete inference runtime sits behind the Backend interface so the
// pipeline never touches runtime internals; swapping the runtime means
// providing another Backend, nothing else changes.
package engine

import (
	"github.com/kris2475/Image-Classification-using-TinyML/internal/classify"
)

// OpCode identifies a builtin operator kernel a model graph may require.
type OpCode int

const (
	OpConv2D OpCode = iota
	OpDepthwiseConv2D
	OpMaxPool2D
	OpAveragePool2D
	OpFullyConnected
	OpReshape
	OpMean
	OpLogistic
	OpSoftmax
	OpQuantize
	OpDequantize
)

var opNames = map[OpCode]string{
	OpConv2D:          "CONV_2D",
	OpDepthwiseConv2D: "DEPTHWISE_CONV_2D",
	OpMaxPool2D:       "MAX_POOL_2D",
	OpAveragePool2D:   "AVERAGE_POOL_2D",
	OpFullyConnected:  "FULLY_CONNECTED",
	OpReshape:         "RESHAPE",
	OpMean:            "MEAN",
	OpLogistic:        "LOGISTIC",
	OpSoftmax:         "SOFTMAX",
	OpQuantize:        "QUANTIZE",
	OpDequantize:      "DEQUANTIZE",
}

// String returns the operator's schema name.
func (o OpCode) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "UNKNOWN_OP"
}

// DoorModelOps is the closed operator set of the deployed door-status
// graph. A backend missing any of these cannot run the model; a backend
// supporting more wastes nothing but memory.
var DoorModelOps = []OpCode{
	OpConv2D,
	OpDepthwiseConv2D,
	OpAveragePool2D,
	OpReshape,
	OpFullyConnected,
	OpLogistic,
	OpQuantize,
}

// ScorePair is the raw two-class output of one forward pass together with
// its shared quantization descriptor. It lives for one cycle only.
type ScorePair struct {
	Closed int8
	Open   int8
	Quant  classify.QuantParams
}

// Backend is the capability contract for an inference runtime: a loadable,
// versioned, invokable quantized classifier.
//
// Load validates model format/schema compatibility and binds tensors; any
// Load error is a fatal setup error. Invoke runs one forward pass and is
// the only per-cycle operation.
type Backend interface {
	// Name identifies the runtime for logs.
	Name() string
	// SupportedOps reports the operator kernels this backend registers.
	SupportedOps() []OpCode
	// Load parses the model blob, allocates tensors and binds handles.
	// The arena is the only large memory the backend may claim.
	Load(model []byte, arena *Arena, threads int) error
	// InputShape reports the bound input tensor geometry.
	InputShape() (width, height, channels int)
	// Input returns the live input tensor buffer. The converter writes
	// into it in place every cycle; the slice stays valid until Close.
	Input() []int8
	// Invoke runs one forward pass over the current input tensor.
	Invoke() error
	// Outputs returns the quantized output vector and its descriptor.
	Outputs() ([]int8, classify.QuantParams, error)
	// Close releases runtime handles. The arena outlives the backend.
	Close() error
}
