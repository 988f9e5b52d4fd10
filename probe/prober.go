package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// Error reports a probe invocation that produced no usable document. The
// tool's diagnostic output is carried verbatim for the caller to surface.
type Error struct {
	Path   string
	Output string
}

func (e *Error) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("probe %s: no output", e.Path)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Output)
}

// Prober invokes an external ffprobe binary.
type Prober struct {
	Bin string
	Log zerolog.Logger
}

// NewProber returns a Prober using the given binary name ("ffprobe" when
// empty).
func NewProber(bin string, log zerolog.Logger) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{Bin: bin, Log: log.With().Str("component", "probe").Logger()}
}

// Run probes path and parses the result. size is the file's byte count
// from the filesystem and is attached to the returned Document. Missing or
// malformed tool output is reported as *Error, never as a panic.
func (p *Prober) Run(ctx context.Context, path string, size int64) (*Document, error) {
	cmd := exec.CommandContext(ctx, p.Bin,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"-i", path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.Log.Debug().Err(err).Str("path", path).Msg("ffprobe failed")
	}
	if stdout.Len() == 0 {
		return nil, &Error{Path: path, Output: stderr.String()}
	}

	doc, err := ParseJSON(stdout.Bytes())
	if err != nil {
		return nil, &Error{Path: path, Output: stderr.String()}
	}
	doc.Size = size
	return doc, nil
}

// ParseJSON decodes raw ffprobe JSON into a Document. Exported so tests
// and the planner can work without a real ffprobe binary.
func ParseJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse probe JSON: %w", err)
	}
	return &doc, nil
}
