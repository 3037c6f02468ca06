// Package classify turns quantized classifier outputs into a door state.
package classify

// QuantParams is the affine quantization descriptor shared by both output
// scores: real = (quantized - ZeroPoint) * Scale.
type QuantParams struct {
	Scale     float64
	ZeroPoint int
}

// Dequantize maps a quantized int8 output back onto the real score scale.
// Pure and deterministic; defined for all representable inputs.
func Dequantize(raw int8, q QuantParams) float64 {
	return (float64(raw) - float64(q.ZeroPoint)) * q.Scale
}
