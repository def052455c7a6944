// Package ocr defines the contract for plugging text-recognition engines
// into the extraction pipeline. The interface is transport-agnostic so an
// engine can be backed by a native library or a remote API without leaking
// provider concerns into callers.
package ocr

import "context"

// Input encapsulates a single encoded image submitted for recognition.
type Input struct {
	// Image is the encoded payload (PNG or JPEG).
	Image []byte
	// Languages is a list of trained-data hints (e.g., "eng").
	Languages []string
}

// Result captures engine output for a single input image.
type Result struct {
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Confidence is the mean word confidence in [0,1]; zero when the
	// engine reports none.
	Confidence float64
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
