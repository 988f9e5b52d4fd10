// Package progress parses an encoder's live diagnostic byte stream into
// structured progress updates. The stream is not line-buffered by the
// transport, so the notifier scans for line boundaries itself, one chunk
// at a time, and also watches the partial line for the encoder's
// interactive overwrite prompt.
package progress

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"hevc-convert/units"
)

var (
	durationRx = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.\d{2}`)
	progressRx = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.\d{2}`)
	sourceRx   = regexp.MustCompile(`from '(.*)':`)
	// fpsRx captures at most two integer digits, so a "120 fps" stream
	// reads as 20. The frames arithmetic in progress assumes this same
	// reading for both total and position, so widening the capture here
	// alone would skew the bar.
	fpsRx = regexp.MustCompile(`(\d{2}\.\d{2}|\d{2}) fps`)
)

// promptSuffix is the tail ffmpeg leaves on the wire when it blocks
// waiting for a yes/no answer; no newline follows it.
var promptSuffix = []byte("[y/N] ")

// Display receives progress updates. Start is called exactly once, on the
// first progress match of a session; total is 0 when unknown.
type Display interface {
	Start(label string, total float64, unit string)
	Add(delta float64)
	Close()
}

// Config wires a Notifier's collaborators. Zero values fall back to
// stderr/stdin and a Bar display.
type Config struct {
	Display Display
	Out     io.Writer // prompt echo target
	Input   io.Reader // interactive answers are read from here
	Stdin   io.Writer // encoder stdin; prompt answers are forwarded here
	Log     zerolog.Logger
}

// Notifier is the per-session progress state machine. Not safe for
// concurrent use; one goroutine owns the encoder's diagnostic stream for
// the session's lifetime.
type Notifier struct {
	display Display
	out     io.Writer
	input   *bufio.Reader
	stdin   io.Writer
	log     zerolog.Logger

	lines    [][]byte // last two completed lines, oldest first
	acc      []byte
	duration float64
	hasDur   bool
	source   string
	hasSrc   bool
	fps      int
	hasFPS   bool
	started  bool
	position float64
}

// NewNotifier builds a Notifier from cfg.
func NewNotifier(cfg Config) *Notifier {
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Display == nil {
		cfg.Display = NewBar(cfg.Out)
	}
	return &Notifier{
		display: cfg.Display,
		out:     cfg.Out,
		input:   bufio.NewReader(cfg.Input),
		stdin:   cfg.Stdin,
		log:     cfg.Log.With().Str("component", "progress").Logger(),
	}
}

// BindStdin sets the writer that receives interactive prompt answers.
// The encoder's stdin pipe only exists once the process has started, so
// it is attached after construction.
func (n *Notifier) BindStdin(w io.Writer) {
	n.stdin = w
}

// Feed consumes the next chunk of diagnostic output.
func (n *Notifier) Feed(p []byte) {
	for _, b := range p {
		if b == '\r' || b == '\n' {
			n.completeLine()
			continue
		}
		n.acc = append(n.acc, b)
		if bytes.HasSuffix(n.acc, promptSuffix) {
			n.handlePrompt()
		}
	}
}

// Close shuts the display down. Safe to call when no display was started.
func (n *Notifier) Close() {
	if n.started {
		n.display.Close()
	}
}

// LastLine returns the most recent completed line, for error reporting
// when the encoder exits non-zero.
func (n *Notifier) LastLine() string {
	if len(n.lines) == 0 {
		return ""
	}
	return string(n.lines[len(n.lines)-1])
}

// completeLine flushes the accumulator, retains the bounded line history
// and runs the per-line extractions. Duration, source and fps are each
// extracted at most once per session; a progress match is attempted on
// every line.
func (n *Notifier) completeLine() {
	line := n.acc
	n.acc = nil
	n.lines = append(n.lines, line)
	if len(n.lines) > 2 {
		n.lines = n.lines[len(n.lines)-2:]
	}

	if !n.hasDur {
		if m := durationRx.FindSubmatch(line); m != nil {
			n.duration = clockFields(m)
			n.hasDur = true
		}
	}
	if !n.hasSrc {
		if m := sourceRx.FindSubmatch(line); m != nil {
			n.source = units.Shorten(filepath.Base(string(m[1])), 50, "[...]")
			n.hasSrc = true
		}
	}
	if !n.hasFPS {
		if m := fpsRx.FindSubmatch(line); m != nil {
			f, _ := strconv.ParseFloat(string(m[1]), 64)
			n.fps = int(f + 0.5)
			n.hasFPS = true
		}
	}
	n.progress(line)
}

// handlePrompt echoes the pending partial line, reads one answer line
// from the interactive input, queues it to the encoder's stdin, and then
// treats the partial buffer as a completed line.
func (n *Notifier) handlePrompt() {
	_, _ = n.out.Write(n.acc)
	answer, err := n.input.ReadString('\n')
	if err != nil && answer == "" {
		n.log.Warn().Err(err).Msg("prompt input unavailable")
		answer = "\n"
	}
	if n.stdin != nil {
		if !bytes.HasSuffix([]byte(answer), []byte("\n")) {
			answer += "\n"
		}
		_, _ = io.WriteString(n.stdin, answer)
	}
	n.completeLine()
}

// progress advances the display when the line carries a time= position.
// Positions and totals are expressed in frames when the frame rate is
// known, seconds otherwise.
func (n *Notifier) progress(line []byte) {
	m := progressRx.FindSubmatch(line)
	if m == nil {
		return
	}

	current := clockFields(m)
	total := 0.0
	if n.hasDur {
		total = n.duration
	}
	unit := "seconds"
	if n.hasFPS {
		unit = "frames"
		current *= float64(n.fps)
		total *= float64(n.fps)
	}

	if !n.started {
		n.display.Start(n.source, total, unit)
		n.started = true
	}
	n.display.Add(current - n.position)
	n.position = current
}

// clockFields folds the three captured HH MM SS groups into seconds.
func clockFields(m [][]byte) float64 {
	h, _ := strconv.Atoi(string(m[1]))
	min, _ := strconv.Atoi(string(m[2]))
	s, _ := strconv.Atoi(string(m[3]))
	return float64((h*60+min)*60 + s)
}
