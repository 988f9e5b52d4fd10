package encoder

import (
	"errors"
	"fmt"
)

// ErrInterrupted marks an encode stopped by the user; the batch winds
// down gracefully instead of treating it as a conversion error.
var ErrInterrupted = errors.New("encode interrupted")

// FailureKind distinguishes the ways a conversion can fail even after
// the encoder ran.
type FailureKind string

const (
	FailExit     FailureKind = "exit"     // non-zero encoder exit
	FailProbe    FailureKind = "probe"    // output unreadable on re-probe
	FailSize     FailureKind = "size"     // output did not shrink
	FailDuration FailureKind = "duration" // output duration drifted
)

// EncodeFailure reports a failed or silently corrupted conversion.
type EncodeFailure struct {
	Kind FailureKind
	Msg  string
}

func (e *EncodeFailure) Error() string {
	return fmt.Sprintf("encode failure (%s): %s", e.Kind, e.Msg)
}
