package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"strictjars/internal/checks"
	"strictjars/internal/model"
	"strictjars/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	adviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange

	activeColor = lipgloss.Color("205")
	borderColor = lipgloss.Color("63")
)

const helpText = `strictjars

Each check on the left reports classes defined by more than one jar
on a device classpath, or library classes leaking onto one.

  ↑/k ↓/j   select a check
  g/G       first / last check
  tab       switch focus between the list and the details
  /         filter by class name
  esc       clear the filter
  v         show entries suppressed by filters
  ?         toggle this help
  q         quit`

// layout splits the window into the panel sizes used by View.
func layout(ws tea.WindowSizeMsg) (leftWidth, rightWidth, interiorHeight int) {
	// 6 columns for borders and a gap, 6 rows for the header and footer.
	netWidth := ws.Width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth = netWidth * 2 / 5
	rightWidth = netWidth - leftWidth

	boxHeight := ws.Height - 6
	if boxHeight < 6 {
		boxHeight = 6
	}
	interiorHeight = boxHeight - 2
	return leftWidth, rightWidth, interiorHeight
}

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Pulling classpath jars from the device... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	leftWidth, rightWidth, interiorHeight := layout(m.WindowSize)

	// LEFT PANEL: checks
	var leftView strings.Builder
	leftView.WriteString(headerStyle.Render("Checks"))
	leftView.WriteString("\n\n")

	visibleItems := interiorHeight - 2
	if visibleItems < 1 {
		visibleItems = 1
	}
	startIdx := 0
	endIdx := len(m.FilteredIndices)
	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - visibleItems/2
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	for i := startIdx; i < endIdx; i++ {
		r := m.Results[m.FilteredIndices[i]]
		line := fmt.Sprintf("%s %s", r.Icon(), r.Name)
		if n := len(filterClasses(r.Offending, m.Filter)); n > 0 {
			line += fmt.Sprintf(" (%d)", n)
		}
		if len([]rune(line)) > leftWidth-2 && leftWidth > 5 {
			line = string([]rune(line)[:leftWidth-5]) + "..."
		}

		style := normalStyle
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case r.Status == checks.Skipped:
			style = dimStyle
		}
		leftView.WriteString(style.Render(line))
		leftView.WriteString("\n")
	}
	if len(m.FilteredIndices) == 0 {
		leftView.WriteString(dimStyle.Render("No check matches the filter."))
	}

	lBorderColor, rBorderColor := activeColor, borderColor
	if m.RightFocus {
		lBorderColor, rBorderColor = borderColor, activeColor
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lBorderColor).
		Render(strings.TrimSuffix(leftView.String(), "\n"))

	// RIGHT PANEL: details of the selected check
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(rBorderColor).
		Render(headerStyle.Render("Details") + "\n\n" + m.DetailsViewport.View())

	// Footer
	help := "↑/↓: Navigate • Tab: Details • /: Filter classes • v: Suppressed • ?: Help • q: Quit"
	if m.RightFocus {
		help = "Details: ↑/↓: Scroll • Tab: Return to checks • ?: Help • q: Quit"
	}
	footer := "\n" + dimStyle.Render(help)
	if m.InputMode {
		footer = fmt.Sprintf("\nFilter: %s", m.InputBuffer.View())
	} else if m.Filter != "" {
		footer = fmt.Sprintf("\nFilter: %q (esc to clear)  %s", m.Filter, dimStyle.Render(help))
	}

	return m.header() + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

func (m AppModel) header() string {
	title := titleStyle.Render("strictjars " + model.Version)
	if m.Env == nil {
		return title
	}
	failed := 0
	for _, r := range m.Results {
		if r.Status == checks.Fail {
			failed++
		}
	}
	jars := 0
	if m.Env.Snapshot != nil {
		jars = len(m.Env.Snapshot.Jars())
	}
	return fmt.Sprintf("%s %s  API %d  %d of %d checks failed  %d jars",
		title, m.Env.Device, m.Env.APILevel, failed, len(m.Results), jars)
}

// details renders the right panel content for the selected check.
func (m AppModel) details() string {
	r, ok := m.Selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n%s\n", report.Badge(r), r.Name, dimStyle.Render(r.Description))
	switch r.Status {
	case checks.Skipped:
		b.WriteString("\n" + dimStyle.Render(r.Reason) + "\n")
	case checks.Pass:
		b.WriteString("\nNo offending classes.\n")
	case checks.Fail:
		offending := filterClasses(r.Offending, m.Filter)
		if m.Filter != "" && len(offending) < len(r.Offending) {
			fmt.Fprintf(&b, "\nShowing %d of %d classes matching %q\n", len(offending), len(r.Offending), m.Filter)
		}
		b.WriteString("\n" + report.Offending(offending, ""))
		if r.Advice != "" {
			b.WriteString("\n" + adviceStyle.Render(r.Advice) + "\n")
		}
	}

	if m.ShowSuppressed {
		b.WriteString("\n")
		if len(r.Suppressed) == 0 {
			b.WriteString(dimStyle.Render("Nothing suppressed.") + "\n")
		} else {
			b.WriteString(report.Suppressed(r.Suppressed, ""))
		}
	}
	return b.String()
}

func (m AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := w * 80 / 100
	if helpWidth < 40 {
		helpWidth = 40
	}
	if helpWidth > w-4 {
		helpWidth = w - 4
	}

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(helpText)

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m AppModel) Init() tea.Cmd {
	return loadCmd(m.load)
}
