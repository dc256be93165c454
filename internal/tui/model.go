package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"strictjars/internal/checks"
)

// Loader collects the device snapshot and runs the checks. It is called
// once, off the UI goroutine.
type Loader func() (*checks.Env, []checks.Result, error)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Env     *checks.Env
	Results []checks.Result
	Loading bool
	Err     error
	load    Loader

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg
	RightFocus  bool // arrows scroll the details instead of the check list

	// View Modes
	ShowSuppressed bool
	ShowHelp       bool

	// Class filter
	InputMode       bool
	InputBuffer     textinput.Model
	Filter          string
	FilteredIndices []int // indices of Results to show

	// Components
	DetailsViewport viewport.Model
}

// InitialModel returns the initial state. load runs when the program
// starts.
func InitialModel(load Loader) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Class name..."
	ti.CharLimit = 200
	ti.Width = 40

	return AppModel{
		Loading:         true,
		load:            load,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(40, 10),
	}
}

// Selected returns the highlighted result, if any.
func (m AppModel) Selected() (checks.Result, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return checks.Result{}, false
	}
	return m.Results[m.FilteredIndices[m.SelectedIdx]], true
}
