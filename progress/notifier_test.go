package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDisplay captures the display calls a Notifier makes.
type recordingDisplay struct {
	label    string
	total    float64
	unit     string
	position float64
	starts   int
	adds     int
	closed   bool
}

func (d *recordingDisplay) Start(label string, total float64, unit string) {
	d.starts++
	d.label = label
	d.total = total
	d.unit = unit
}

func (d *recordingDisplay) Add(delta float64) {
	d.adds++
	d.position += delta
}

func (d *recordingDisplay) Close() { d.closed = true }

func newTestNotifier(d Display) *Notifier {
	return NewNotifier(Config{
		Display: d,
		Out:     &bytes.Buffer{},
		Input:   strings.NewReader(""),
		Log:     zerolog.Nop(),
	})
}

func feedLines(n *Notifier, lines ...string) {
	for _, l := range lines {
		n.Feed([]byte(l))
		n.Feed([]byte{'\r'})
	}
}

func TestNotifierFramesUnit(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)

	feedLines(n,
		"Input #0, matroska,webm, from '/media/shows/an-episode.mkv':",
		"  Duration: 00:05:30.00, start: 0.000000, bitrate: 2500 kb/s",
		"    Stream #0:0: Video: h264, yuv420p, 1280x720, 29.97 fps, 29.97 tbr",
		"frame=  100 fps= 45 q=28.0 size=    1024KiB time=00:01:00.00 bitrate=1211.1kbits/s speed=2.1x",
	)

	require.Equal(t, 1, d.starts)
	assert.Equal(t, "frames", d.unit)
	assert.Equal(t, "an-episode.mkv", d.label)
	// 29.97 rounds to 30: total 330s*30, position 60s*30.
	assert.Equal(t, 9900.0, d.total)
	assert.Equal(t, 1800.0, d.position)
}

func TestNotifierSecondsUnitWithoutFPS(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)

	feedLines(n,
		"  Duration: 00:05:30.00, start: 0.000000",
		"size=  512KiB time=00:00:30.00 bitrate= 139.8kbits/s",
	)

	assert.Equal(t, "seconds", d.unit)
	assert.Equal(t, 330.0, d.total)
	assert.Equal(t, 30.0, d.position)
}

func TestNotifierProgressDeltas(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)

	feedLines(n,
		"  Duration: 00:10:00.00",
		"time=00:01:00.00",
		"time=00:02:30.00",
		"time=00:04:00.00",
	)

	assert.Equal(t, 1, d.starts)
	assert.Equal(t, 3, d.adds)
	assert.Equal(t, 240.0, d.position)
}

func TestNotifierExtractionsOncePerSession(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)

	feedLines(n,
		"  Duration: 00:05:00.00",
		"  Duration: 00:09:00.00",
		"time=00:01:00.00",
	)

	// The second Duration line must not overwrite the first.
	assert.Equal(t, 300.0, d.total)
}

func TestNotifierSourceShortened(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)

	long := strings.Repeat("a", 40) + strings.Repeat("b", 40) + ".mkv"
	feedLines(n,
		"Input #0, matroska, from '/media/"+long+"':",
		"time=00:00:10.00",
	)

	assert.Len(t, d.label, 50)
	assert.Contains(t, d.label, "[...]")
}

func TestNotifierPromptCycle(t *testing.T) {
	d := &recordingDisplay{}
	out := &bytes.Buffer{}
	stdin := &bytes.Buffer{}
	n := NewNotifier(Config{
		Display: d,
		Out:     out,
		Input:   strings.NewReader("y\n"),
		Stdin:   stdin,
		Log:     zerolog.Nop(),
	})

	n.Feed([]byte("File 'x.H265.mp4' already exists. Overwrite? [y/N] "))

	assert.Equal(t, "File 'x.H265.mp4' already exists. Overwrite? [y/N] ", out.String())
	assert.Equal(t, "y\n", stdin.String())
	// The partial buffer became a completed line and was cleared.
	assert.Contains(t, n.LastLine(), "Overwrite?")
	n.Feed([]byte("next line\n"))
	assert.Equal(t, "next line", n.LastLine())
}

func TestNotifierLineHistoryBounded(t *testing.T) {
	n := newTestNotifier(&recordingDisplay{})
	feedLines(n, "one", "two", "three")
	assert.Equal(t, "three", n.LastLine())
	assert.Len(t, n.lines, 2)
	assert.Equal(t, "two", string(n.lines[0]))
}

func TestNotifierCloseOnlyAfterStart(t *testing.T) {
	d := &recordingDisplay{}
	n := newTestNotifier(d)
	n.Close()
	assert.False(t, d.closed)

	feedLines(n, "  Duration: 00:01:00.00", "time=00:00:10.00")
	n.Close()
	assert.True(t, d.closed)
}
