package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"hevc-convert/batch"
	"hevc-convert/units"
)

// Color palette - modern, readable
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Violet
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#10B981") // Emerald
	colorError     = lipgloss.Color("#EF4444") // Red
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorText      = lipgloss.Color("#F9FAFB") // White
	colorTextDim   = lipgloss.Color("#9CA3AF") // Light gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
)

var (
	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	// Section headers
	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				MarginTop(1)

	// Main stats box
	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginTop(1)

	// Individual stat styles
	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(11)

	statValueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	// File path styles
	fileBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginTop(1)

	fileLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(8)

	filePathStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	// Help text
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	// Details viewport
	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginTop(1)

	// Percentage styles based on progress
	percentLowStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	percentMidStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	percentHighStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)
)

// percentage folds a progress position into 0..100, -1 when the total is
// unknown.
func percentage(p batch.Progress) float64 {
	if p.Total <= 0 {
		return -1
	}
	pct := p.Current / p.Total * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// formatPercentage renders a percentage, "..." when it cannot be known yet
func formatPercentage(pct float64) string {
	if pct < 0 {
		return "..."
	}
	// Cap display at 99.9% until the file is truly finished
	if pct > 99.9 {
		pct = 99.9
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// getPercentageStyle returns appropriate style based on progress
func getPercentageStyle(pct float64) lipgloss.Style {
	if pct < 33 {
		return percentLowStyle
	} else if pct < 66 {
		return percentMidStyle
	}
	return percentHighStyle
}

// formatSaved renders saved bytes, "—" when nothing was saved yet
func formatSaved(n int64) string {
	if n <= 0 {
		return "—"
	}
	return units.HumanSize(n)
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render(" ⚡ HEVC Batch Converter ")
	b.WriteString(title + "\n")

	switch m.State {
	case StateScanning:
		b.WriteString(m.renderScanningView())

	case StateRunning:
		b.WriteString(m.renderRunningView())

	case StateDone:
		b.WriteString(m.renderDoneView())

	case StateError:
		b.WriteString(m.renderErrorView())
	}

	// Help footer
	help := helpStyle.Render("  [D] Toggle details  •  [Q] Stop")
	b.WriteString("\n" + help + "\n")

	return b.String()
}

func (m Model) renderScanningView() string {
	return "\n" + statValueStyle.Render("  Scanning "+m.Root+" ...") + "\n"
}

func (m Model) renderRunningView() string {
	var b strings.Builder

	snap := m.Snapshot
	pct := percentage(snap.Progress)

	b.WriteString("\n")

	// Progress bar - indeterminate totals render as a sliver
	ratio := pct / 100
	if ratio < 0 {
		ratio = 0.01
	}
	progressBar := m.Progress.ViewAs(ratio)
	pctStyled := getPercentageStyle(pct).Render(formatPercentage(pct))
	b.WriteString("  " + progressBar + "  " + pctStyled + "\n")

	elapsed := time.Since(m.StartTime).Round(time.Second)
	b.WriteString(statsBoxStyle.Render(m.buildStatsGrid(snap.Stats, elapsed)))
	b.WriteString("\n")

	// Current file section
	maxPathLen := m.Width - 16
	if maxPathLen < 20 {
		maxPathLen = 60
	}
	fileLine := fileLabelStyle.Render("File") +
		filePathStyle.Render(truncatePath(snap.CurrentFile, maxPathLen))
	if snap.Progress.Unit != "" {
		fileLine += "\n" + fileLabelStyle.Render("Position") + filePathStyle.Render(
			fmt.Sprintf("%.0f / %.0f %s", snap.Progress.Current, snap.Progress.Total, snap.Progress.Unit))
	}
	b.WriteString(fileBoxStyle.Render(fileLine))

	if m.ShowDetails {
		b.WriteString("\n")
		b.WriteString(sectionHeaderStyle.Render("  Stream Details") + "\n")
		b.WriteString(detailBoxStyle.Render(m.DetailView.View()))
	}

	return b.String()
}

func (m Model) buildStatsGrid(st batch.Stats, elapsed time.Duration) string {
	var lines []string

	line1 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Checked"),
		statValueStyle.Render(fmt.Sprintf("%d", st.Checked)),
		lipgloss.NewStyle().Width(6).Render(""),
		statLabelStyle.Render("Skipped"),
		statValueStyle.Render(fmt.Sprintf("%d", st.Skipped)),
	)
	lines = append(lines, line1)

	line2 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Converted"),
		statValueStyle.Render(fmt.Sprintf("%d", st.Converted)),
		lipgloss.NewStyle().Width(6).Render(""),
		statLabelStyle.Render("Errors"),
		statValueStyle.Render(fmt.Sprintf("%d", st.CheckErr+st.ConvertErr)),
	)
	lines = append(lines, line2)

	line3 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Saved"),
		statValueStyle.Render(formatSaved(st.TotalSaved)),
		lipgloss.NewStyle().Width(6).Render(""),
		statLabelStyle.Render("Elapsed"),
		statValueStyle.Render(formatDuration(elapsed)),
	)
	lines = append(lines, line3)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Show beginning and end
	if maxLen < 20 {
		return path[:maxLen-3] + "..."
	}
	half := (maxLen - 5) / 2
	return path[:half] + " ... " + path[len(path)-half:]
}

func (m Model) renderDoneView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(successStyle.Render("  ✓ Batch Complete") + "\n")

	st := m.FinalStats
	elapsed := time.Since(m.StartTime).Round(time.Second)

	var lines []string
	lines = append(lines,
		statLabelStyle.Render("Checked")+statValueStyle.Render(fmt.Sprintf("%d", st.Checked)))
	lines = append(lines,
		statLabelStyle.Render("Converted")+statValueStyle.Render(fmt.Sprintf("%d", st.Converted)))
	lines = append(lines,
		statLabelStyle.Render("Skipped")+statValueStyle.Render(fmt.Sprintf("%d", st.Skipped)))
	if st.CheckErr+st.ConvertErr > 0 {
		lines = append(lines,
			statLabelStyle.Render("Errors")+warningStyle.Render(fmt.Sprintf("%d", st.CheckErr+st.ConvertErr)))
	}
	lines = append(lines,
		statLabelStyle.Render("Saved")+statValueStyle.Render(formatSaved(st.TotalSaved)))
	lines = append(lines,
		statLabelStyle.Render("Time")+statValueStyle.Render(formatDuration(elapsed)))

	b.WriteString(statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))

	if len(m.Snapshot.Converted) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionHeaderStyle.Render("  Converted Files") + "\n")
		var files []string
		for _, f := range m.Snapshot.Converted {
			files = append(files, filePathStyle.Render("  "+f))
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, files...))
	}

	return b.String()
}

func (m Model) renderErrorView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(errorStyle.Render("  ✗ Batch Failed") + "\n\n")

	errBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 2).
		Foreground(colorError).
		Render(m.ErrorMessage)

	b.WriteString(errBox + "\n")

	if m.ShowDetails && m.DetailView.TotalLineCount() > 0 {
		b.WriteString("\n")
		b.WriteString(sectionHeaderStyle.Render("  Stream Details") + "\n")
		b.WriteString(detailBoxStyle.Render(m.DetailView.View()))
	}

	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "—"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
