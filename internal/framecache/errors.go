package framecache

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration indicates a negative duration was requested.
var ErrInvalidDuration = errors.New("invalid duration")

// MissingFramesError reports that Assemble found gaps in the
// second-indexed tier. Missing lists every absent remaining-seconds
// value. Callers that consult Analyze first should never see this.
type MissingFramesError struct {
	Duration int
	Missing  []int
}

func (e *MissingFramesError) Error() string {
	return fmt.Sprintf("cannot assemble duration %d: %d frame(s) missing: %v",
		e.Duration, len(e.Missing), e.Missing)
}

// ExtractionError reports that re-slicing a donor clip produced an
// out-of-range index or a wrong-length result.
type ExtractionError struct {
	DonorDuration int
	Target        int
	Reason        string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract duration %d from donor %d: %s",
		e.Target, e.DonorDuration, e.Reason)
}
