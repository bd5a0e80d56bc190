package layout

import (
	"errors"
	"fmt"
)

// Sentinel errors for the line engine.
var (
	// ErrInvalidWidth is returned when a measurement oracle reports a negative or NaN width.
	ErrInvalidWidth = errors.New("layout: invalid width")

	// ErrMalformedSegments is returned when a hyphenation oracle returns segments
	// that are empty or do not join back into the word.
	ErrMalformedSegments = errors.New("layout: malformed hyphenation segments")

	// ErrNoMeasurer is returned when an engine is built without a measurement oracle.
	ErrNoMeasurer = errors.New("layout: missing measurement oracle")
)

// LineMissingError reports that a line expected at Line does not exist.
// It aborts the current paragraph only.
type LineMissingError struct {
	Line int
}

func (e *LineMissingError) Error() string {
	return fmt.Sprintf("layout: line %d does not exist", e.Line)
}

// MeasureError wraps an invalid measurement value together with the measured fragment.
type MeasureError struct {
	Fragment string
	Width    float64
	Err      error
}

func (e *MeasureError) Error() string {
	return fmt.Sprintf("layout: measuring %q returned %g: %v", e.Fragment, e.Width, e.Err)
}

func (e *MeasureError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("layout: config %s: %s", e.Key, e.Reason)
}

// ParagraphError attaches the paragraph index to a failure inside a batch.
type ParagraphError struct {
	Index int
	Err   error
}

func (e *ParagraphError) Error() string {
	return fmt.Sprintf("layout: paragraph %d: %v", e.Index, e.Err)
}

func (e *ParagraphError) Unwrap() error { return e.Err }
