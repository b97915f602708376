package generator

import "fmt"

// ErrorKind classifies an orchestrator failure for callers that map
// errors to user-facing responses.
type ErrorKind int

const (
	// KindInvalidDuration means the requested duration is negative.
	KindInvalidDuration ErrorKind = iota
	// KindMemory means rendering failed under memory pressure.
	KindMemory
	// KindRenderSurface means frame rendering itself failed.
	KindRenderSurface
	// KindEncoderUnavailable means no encoding strategy is supported.
	KindEncoderUnavailable
	// KindInternal wraps anything else.
	KindInternal
)

// Remediation hints attached to failures.
const (
	hintInvalidDuration = "request a duration of zero seconds or more"
	hintMemory          = "try a shorter duration or free up memory"
	hintRenderSurface   = "the rendering surface failed; reload and try again"
	hintEncoder         = "this runtime has no alpha-capable video encoder installed"
)

// Error is a structured orchestrator failure: a classification, a
// user-facing remediation hint and the underlying cause.
type Error struct {
	Kind ErrorKind
	Hint string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("generation failed: %s", e.Hint)
	}
	return fmt.Sprintf("generation failed: %v (%s)", e.err, e.Hint)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.err
}

func invalidDurationError(duration int) *Error {
	return &Error{
		Kind: KindInvalidDuration,
		Hint: hintInvalidDuration,
		err:  fmt.Errorf("invalid duration %d", duration),
	}
}

func memoryError(err error) *Error {
	return &Error{Kind: KindMemory, Hint: hintMemory, err: err}
}

func renderSurfaceError(err error) *Error {
	return &Error{Kind: KindRenderSurface, Hint: hintRenderSurface, err: err}
}

func encoderUnavailableError(err error) *Error {
	return &Error{Kind: KindEncoderUnavailable, Hint: hintEncoder, err: err}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Hint: "unexpected failure; see logs", err: err}
}
