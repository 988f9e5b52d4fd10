package progress

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var barLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

// Bar is the plain-terminal Display: a single redrawn line holding the
// source label, a rendered progress bar and the position counter. It
// reuses the same bubbles progress model as the TUI so both modes look
// alike.
type Bar struct {
	w       io.Writer
	model   progress.Model
	label   string
	unit    string
	total   float64
	current float64
}

// NewBar returns a Bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{
		w: w,
		model: progress.New(
			progress.WithGradient("#7C3AED", "#10B981"),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

func (b *Bar) Start(label string, total float64, unit string) {
	b.label = label
	b.total = total
	b.unit = unit
	b.render()
}

func (b *Bar) Add(delta float64) {
	b.current += delta
	b.render()
}

func (b *Bar) Close() {
	fmt.Fprintln(b.w)
}

func (b *Bar) render() {
	label := ""
	if b.label != "" {
		label = barLabelStyle.Render(b.label) + " "
	}
	if b.total > 0 {
		pct := b.current / b.total
		if pct > 1 {
			pct = 1
		}
		fmt.Fprintf(b.w, "\r%s%s %.0f/%.0f %s", label, b.model.ViewAs(pct), b.current, b.total, b.unit)
		return
	}
	fmt.Fprintf(b.w, "\r%s%.0f %s", label, b.current, b.unit)
}
