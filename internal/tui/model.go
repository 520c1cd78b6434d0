// Package tui is the interactive dashboard: a single bubbletea model owning
// all mutable state, a mode state machine for key handling, and a task
// coordinator that runs every network operation off the update loop and
// feeds results back as messages.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modeldash/internal/api"
	"modeldash/internal/config"
	"modeldash/internal/filter"
	"modeldash/internal/logging"
	"modeldash/internal/registry"
)

// Runtime is the slice of the model-runtime client the dashboard needs.
type Runtime interface {
	ListModels(ctx context.Context) ([]api.Model, error)
	ShowModel(ctx context.Context, name string) (*api.ShowResponse, error)
	DeleteModel(ctx context.Context, name string) error
	RunModel(ctx context.Context, name string) error
	Pull(ctx context.Context, name string, frames chan<- api.PullProgress) error
}

// Catalog lists installable models from the remote registry.
type Catalog interface {
	Library(ctx context.Context) ([]registry.Entry, error)
}

// Mode is the current interaction mode. Key handling is a pure function of
// the mode; keys outside a mode's table are no-ops.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeConfirmDelete
	ModeInstall
	ModeInstallFilter
	ModeConfirmInstall
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeFilter:
		return "filter"
	case ModeConfirmDelete:
		return "confirm-delete"
	case ModeInstall:
		return "install"
	case ModeInstallFilter:
		return "install-filter"
	case ModeConfirmInstall:
		return "confirm-install"
	case ModeHelp:
		return "help"
	}
	return "unknown"
}

type Theme struct {
	border      lipgloss.Style
	title       lipgloss.Style
	label       lipgloss.Style
	row         lipgloss.Style
	rowSelected lipgloss.Style
	head        lipgloss.Style
	footer      lipgloss.Style
	ok          lipgloss.Style
	bad         lipgloss.Style
	prompt      lipgloss.Style
}

func defaultTheme() Theme {
	b := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Theme{
		border:      b.BorderForeground(lipgloss.Color("63")),
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label:       lipgloss.NewStyle().Faint(true),
		row:         lipgloss.NewStyle(),
		rowSelected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("219")),
		head:        lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		footer:      lipgloss.NewStyle().Faint(true),
		ok:          lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		bad:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		prompt:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// pullState tracks the single in-flight pull. Frames arrive on frames in
// stream order; done carries the terminal result after frames is closed.
type pullState struct {
	name   string
	last   api.PullProgress
	frames chan api.PullProgress
	done   chan error
}

// Model is the application state. It is mutated exclusively inside Update.
type Model struct {
	cfg *config.Config
	rt  Runtime
	cat Catalog
	log *logging.Logger
	th  Theme

	w, h int

	mode     Mode
	prevMode Mode // where Help returns to

	// local models
	models      []api.Model
	view        []int // indices into models matching the filter
	selected    int   // index into view, -1 when the view is empty
	filterInput textinput.Model
	filterText  string

	details map[string]*api.ShowResponse

	confirmTarget string
	status        string

	// registry cache, populated on first entry into Install mode and kept
	// for the process lifetime
	registryLoaded bool
	entries        []registry.Entry
	regView        []int
	regSelected    int
	regInput       textinput.Model
	regFilterText  string

	// task coordinator: one in-flight operation per (kind, target)
	inflight map[string]struct{}
	pull     *pullState
	pullSeen map[string]int64 // per-digest high-water mark for completed bytes

	prog     progress.Model
	spin     spinner.Model
	quitting bool
}

// New builds the dashboard model around an already-fetched model list (the
// initial fetch happens synchronously at startup so failures are fatal).
func New(cfg *config.Config, rt Runtime, cat Catalog, log *logging.Logger, models []api.Model) *Model {
	fi := textinput.New()
	fi.Prompt = "/"
	fi.CharLimit = 128
	ri := textinput.New()
	ri.Prompt = "/"
	ri.CharLimit = 128
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		cfg:         cfg,
		rt:          rt,
		cat:         cat,
		log:         log,
		th:          defaultTheme(),
		mode:        ModeNormal,
		models:      models,
		selected:    -1,
		filterInput: fi,
		regInput:    ri,
		regSelected: -1,
		details:     make(map[string]*api.ShowResponse),
		inflight:    make(map[string]struct{}),
		pullSeen:    make(map[string]int64),
		prog:        progress.New(progress.WithDefaultGradient()),
		spin:        sp,
	}
	m.applyFilter()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.maybeFetchDetails())
}

// modelNames projects the full list for the filter engine.
func (m *Model) modelNames() []string {
	names := make([]string, len(m.models))
	for i, mod := range m.models {
		names[i] = mod.Name
	}
	return names
}

func (m *Model) entryNames() []string {
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

// applyFilter recomputes the local filtered view, keeping the selection on
// the same model when it survives the filter.
func (m *Model) applyFilter() {
	prevItem := -1
	if m.selected >= 0 && m.selected < len(m.view) {
		prevItem = m.view[m.selected]
	}
	m.view = filter.Apply(m.modelNames(), m.filterText)
	m.selected = filter.Reselect(m.view, prevItem)
}

func (m *Model) applyRegistryFilter() {
	prevItem := -1
	if m.regSelected >= 0 && m.regSelected < len(m.regView) {
		prevItem = m.regView[m.regSelected]
	}
	m.regView = filter.Apply(m.entryNames(), m.regFilterText)
	m.regSelected = filter.Reselect(m.regView, prevItem)
}

func (m *Model) selectedModel() (api.Model, bool) {
	if m.selected < 0 || m.selected >= len(m.view) {
		return api.Model{}, false
	}
	return m.models[m.view[m.selected]], true
}

func (m *Model) selectedEntry() (registry.Entry, bool) {
	if m.regSelected < 0 || m.regSelected >= len(m.regView) {
		return registry.Entry{}, false
	}
	return m.entries[m.regView[m.regSelected]], true
}

func (m *Model) hasModel(name string) bool {
	for _, mod := range m.models {
		if mod.Name == name {
			return true
		}
	}
	return false
}
