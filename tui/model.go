package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"hevc-convert/batch"
)

// State represents the current application state
type State int

const (
	StateScanning State = iota
	StateRunning
	StateDone
	StateError
)

// BatchDoneMsg is sent when the batch goroutine returns
type BatchDoneMsg struct {
	Stats batch.Stats
	Err   error
}

// Model is the Bubble Tea model for the TUI
type Model struct {
	Runner *batch.Runner
	Root   string

	State        State
	Progress     progress.Model
	DetailView   viewport.Model
	ShowDetails  bool
	Width        int
	Height       int
	StartTime    time.Time
	ErrorMessage string
	Snapshot     batch.State // Local safe copy
	FinalStats   batch.Stats

	ctx    context.Context
	cancel context.CancelFunc
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// NewModel creates a new TUI model driving one batch over root
func NewModel(r *batch.Runner, root string) Model {
	// Custom gradient: violet -> emerald
	prog := progress.New(
		progress.WithGradient("#7C3AED", "#10B981"),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	vp := viewport.New(80, 12)
	vp.SetContent("")

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		Runner:     r,
		Root:       root,
		State:      StateScanning,
		Progress:   prog,
		DetailView: vp,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the Bubble Tea program
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.startBatch(),
		tickCmd(),
	)
}

// startBatch runs the batch in its own goroutine; progress is observed
// through Runner.Snapshot on every tick, only completion arrives as a
// message.
func (m Model) startBatch() tea.Cmd {
	ctx, r, root := m.ctx, m.Runner, m.Root
	return func() tea.Msg {
		stats, err := r.Run(ctx, root)
		return BatchDoneMsg{Stats: stats, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			if m.State == StateDone || m.State == StateError {
				return m, tea.Quit
			}
			// The canceled context stops the batch; the BatchDoneMsg
			// flips the state so the summary stays on screen.
		case "d":
			m.ShowDetails = !m.ShowDetails
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 20
		m.DetailView.Width = msg.Width - 4

		detailHeight := msg.Height - 20
		if detailHeight < 0 {
			detailHeight = 0
		}
		m.DetailView.Height = detailHeight

	case BatchDoneMsg:
		m.FinalStats = msg.Stats
		if msg.Err != nil {
			m.State = StateError
			m.ErrorMessage = msg.Err.Error()
		} else {
			m.State = StateDone
		}
		return m, nil

	case TickMsg:
		snap := m.Runner.Snapshot()
		m.Snapshot = snap
		if m.State == StateScanning && snap.CurrentFile != "" {
			m.State = StateRunning
			m.StartTime = time.Now()
		}

		var details []string
		if snap.Description != "" {
			details = append(details, strings.TrimRight(snap.Description, "\n"))
		}
		for _, f := range snap.Converted {
			details = append(details, "✓ "+f)
		}
		if len(details) > 0 {
			m.DetailView.SetContent(strings.Join(details, "\n"))
			m.DetailView.GotoBottom()
		}

		if m.State == StateRunning || m.State == StateScanning {
			cmds = append(cmds, tickCmd())
		}

	case error:
		m.State = StateError
		m.ErrorMessage = msg.Error()
		return m, nil
	}

	if m.ShowDetails {
		var cmd tea.Cmd
		m.DetailView, cmd = m.DetailView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}
