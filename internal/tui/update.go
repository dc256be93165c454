package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"strictjars/internal/checks"
	"strictjars/internal/model"
)

// MsgLoaded carries the outcome of the Loader.
type MsgLoaded struct {
	Env     *checks.Env
	Results []checks.Result
}

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.resizeDetails()
		m.refreshDetails()
		return m, nil

	case MsgLoaded:
		m.Loading = false
		m.Env = msg.Env
		m.Results = msg.Results
		m.applyFilter()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.Filter = strings.TrimSpace(m.InputBuffer.Value())
				m.applyFilter()
				return m, nil
			case tea.KeyEsc:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.InputBuffer.SetValue("")
				m.Filter = ""
				m.applyFilter()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "?", "esc", "q":
				m.ShowHelp = false
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.Filter != "" {
				m.InputBuffer.SetValue("")
				m.Filter = ""
				m.applyFilter()
			}
			return m, nil
		case "tab":
			m.RightFocus = !m.RightFocus
			return m, nil
		case "?":
			m.ShowHelp = true
			return m, nil
		case "v":
			m.ShowSuppressed = !m.ShowSuppressed
			m.refreshDetails()
			return m, nil
		case "/":
			m.InputMode = true
			m.InputBuffer.SetValue(m.Filter)
			return m, tea.Batch(m.InputBuffer.Focus(), textinput.Blink)
		}

		if m.RightFocus {
			m.DetailsViewport, cmd = m.DetailsViewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshDetails()
			}
		case "down", "j":
			if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
				m.refreshDetails()
			}
		case "home", "g":
			m.SelectedIdx = 0
			m.refreshDetails()
		case "end", "G":
			if n := len(m.FilteredIndices); n > 0 {
				m.SelectedIdx = n - 1
				m.refreshDetails()
			}
		}
	}

	return m, cmd
}

// applyFilter recomputes which checks are listed. With a filter set only
// checks with a matching offending class remain.
func (m *AppModel) applyFilter() {
	var indices []int
	for i, r := range m.Results {
		if m.Filter == "" || len(filterClasses(r.Offending, m.Filter)) > 0 {
			indices = append(indices, i)
		}
	}
	m.FilteredIndices = indices

	if m.SelectedIdx >= len(m.FilteredIndices) {
		if len(m.FilteredIndices) > 0 {
			m.SelectedIdx = len(m.FilteredIndices) - 1
		} else {
			m.SelectedIdx = 0
		}
	}
	m.refreshDetails()
}

// filterClasses returns the entries of offending whose class contains
// term, ignoring case.
func filterClasses(offending model.ClassMap, term string) model.ClassMap {
	if term == "" {
		return offending
	}
	term = strings.ToLower(term)
	out := make(model.ClassMap)
	for c, jars := range offending {
		if strings.Contains(strings.ToLower(string(c)), term) {
			out[c] = jars
		}
	}
	return out
}

func (m *AppModel) resizeDetails() {
	_, rightWidth, interiorHeight := layout(m.WindowSize)
	m.DetailsViewport.Width = rightWidth
	m.DetailsViewport.Height = interiorHeight - 2 // title and blank line
	if m.DetailsViewport.Height < 1 {
		m.DetailsViewport.Height = 1
	}
}

func (m *AppModel) refreshDetails() {
	m.DetailsViewport.SetContent(m.details())
	m.DetailsViewport.GotoTop()
}

func loadCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		env, results, err := load()
		if err != nil {
			return MsgError(err)
		}
		return MsgLoaded{Env: env, Results: results}
	}
}
