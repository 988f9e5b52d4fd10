package plan

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a source file that is missing or zero bytes long.
var ErrNotFound = errors.New("file not exist or 0 bytes")

// IncompleteMetadataError reports a main video stream whose bitrate,
// duration or frame rate could not be resolved from any metadata source.
// It invalidates the whole plan for that file, not just the stream.
type IncompleteMetadataError struct {
	Codec    string
	Bitrate  int64
	Duration string
	FPS      float64
}

func (e *IncompleteMetadataError) Error() string {
	return fmt.Sprintf("empty main bitrate/duration/fps (codec=%s bitrate=%d duration=%q fps=%g)",
		e.Codec, e.Bitrate, e.Duration, e.FPS)
}
