package engine

import (
	"fmt"
	"os"
)

// TFLite flatbuffers carry their file identifier at byte offset 4.
const (
	modelIdentOffset = 4
	modelIdent       = "TFL3"
)

// ValidateModel checks that data looks like a TFLite flatbuffer before it
// is handed to a backend. The backend performs the full schema-version
// check during Load; this guards against handing it an arbitrary blob.
func ValidateModel(data []byte) error {
	if len(data) < modelIdentOffset+len(modelIdent) {
		return fmt.Errorf("model blob too short (%d bytes)", len(data))
	}
	ident := string(data[modelIdentOffset : modelIdentOffset+len(modelIdent)])
	if ident != modelIdent {
		return fmt.Errorf("model identifier %q does not match %q: not a TFLite flatbuffer", ident, modelIdent)
	}
	return nil
}

// ReadModel loads and validates the model artifact from disk.
func ReadModel(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	if err := ValidateModel(data); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return data, nil
}
