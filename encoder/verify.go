package encoder

import (
	"context"
	"fmt"
	"math"
	"os"

	"hevc-convert/plan"
	"hevc-convert/units"
)

// durationTolerance is the maximum drift, in seconds, allowed between the
// source's main duration and the converted file's before the conversion
// counts as corrupted.
const durationTolerance = 2.0

// Verify re-probes a converted file and guards against silent corruption:
// the output must probe as a valid plan, must be smaller than the source,
// and its main duration must stay within the tolerance of the source's.
// A nil return means the conversion is trustworthy and the source may be
// discarded.
func Verify(ctx context.Context, checker *plan.Checker, outPath string, srcDuration string, oldSize int64) error {
	fi, err := os.Stat(outPath)
	if err != nil {
		return &EncodeFailure{Kind: FailProbe, Msg: fmt.Sprintf("stat output: %v", err)}
	}
	newSize := fi.Size()

	converted, err := checker.Check(ctx, outPath)
	if err != nil || !converted.Valid {
		msg := "re-probe reported invalid output"
		if err != nil {
			msg = err.Error()
		}
		return &EncodeFailure{Kind: FailProbe, Msg: msg}
	}

	if oldSize-newSize <= 0 {
		return &EncodeFailure{
			Kind: FailSize,
			Msg: fmt.Sprintf("output did not shrink: %s -> %s",
				units.HumanSize(oldSize), units.HumanSize(newSize)),
		}
	}

	srcSec, err := units.ClockToSeconds(srcDuration)
	if err != nil {
		return &EncodeFailure{Kind: FailDuration, Msg: fmt.Sprintf("source duration: %v", err)}
	}
	if drift := math.Abs(converted.DurationSeconds() - srcSec); drift >= durationTolerance {
		return &EncodeFailure{
			Kind: FailDuration,
			Msg:  fmt.Sprintf("duration drifted %.2fs (%s vs %s)", drift, converted.MainDuration, srcDuration),
		}
	}
	return nil
}
