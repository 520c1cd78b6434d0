package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"modeldash/internal/filter"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		pw := m.w - 30
		if pw < 10 {
			pw = 10
		}
		if pw > 50 {
			pw = 50
		}
		m.prog.Width = pw
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		// Redraw while a pull is active so the progress bar stays live even
		// between frames.
		if m.pull != nil {
			return m, m.tickCmd()
		}
		return m, nil

	case listMsg:
		return m.onList(msg)
	case detailsMsg:
		return m.onDetails(msg)
	case deleteMsg:
		return m.onDelete(msg)
	case runMsg:
		return m.onRun(msg)
	case registryMsg:
		return m.onRegistry(msg)
	case pullFrameMsg:
		return m.onPullFrame(msg)
	case pullDoneMsg:
		return m.onPullDone(msg)
	}
	return m, nil
}

// updateKey is the mode state machine: exactly one transition per key,
// evaluated against the current mode only.
func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeNormal:
		return m.updateNormal(msg)
	case ModeFilter:
		return m.updateFilterMode(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case ModeInstall:
		return m.updateInstall(msg)
	case ModeInstallFilter:
		return m.updateInstallFilter(msg)
	case ModeConfirmInstall:
		return m.updateConfirmInstall(msg)
	case ModeHelp:
		// Any key returns to the caller mode.
		m.mode = m.prevMode
		return m, nil
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "down", "j":
		return m, m.moveSelection(1)
	case "up", "k":
		return m, m.moveSelection(-1)
	case "enter":
		if mod, ok := m.selectedModel(); ok {
			cmd := m.runCmd(mod.Name)
			if cmd != nil {
				m.status = "loading " + mod.Name + " into memory..."
			}
			return m, cmd
		}
	case "d":
		if mod, ok := m.selectedModel(); ok {
			m.confirmTarget = mod.Name
			m.mode = ModeConfirmDelete
			m.status = ""
		}
	case "i":
		m.mode = ModeInstall
		m.status = ""
		if !m.registryLoaded {
			return m, m.registryCmd()
		}
	case "/":
		m.enterFilter()
	case "h", "?":
		m.prevMode = ModeNormal
		m.mode = ModeHelp
	case "ctrl+c":
		if m.filterText != "" {
			m.clearFilter()
			return m, m.maybeFetchDetails()
		}
	}
	return m, nil
}

func (m *Model) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filterInput.Blur()
		m.mode = ModeNormal
		if m.filterText != "" {
			m.status = fmt.Sprintf("filter: %q (%d models)", m.filterText, len(m.view))
		}
		return m, m.maybeFetchDetails()
	case "esc":
		m.clearFilter()
		m.filterInput.Blur()
		m.mode = ModeNormal
		return m, m.maybeFetchDetails()
	case "ctrl+c":
		m.filterInput.SetValue("")
		m.filterText = ""
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterText = m.filterInput.Value()
	m.applyFilter()
	return m, tea.Batch(cmd, m.maybeFetchDetails())
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.confirmTarget
		m.confirmTarget = ""
		m.mode = ModeNormal
		cmd := m.deleteCmd(name)
		if cmd != nil {
			m.status = "deleting " + name + "..."
		}
		return m, cmd
	case "n", "N", "esc":
		m.confirmTarget = ""
		m.mode = ModeNormal
		m.status = ""
	}
	return m, nil
}

func (m *Model) updateInstall(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		m.regSelected = filter.Clamp(m.regSelected+1, len(m.regView))
	case "up", "k":
		m.regSelected = filter.Clamp(m.regSelected-1, len(m.regView))
	case "/":
		m.regInput.SetValue(m.regFilterText)
		m.regInput.CursorEnd()
		m.regInput.Focus()
		m.mode = ModeInstallFilter
	case "enter":
		if e, ok := m.selectedEntry(); ok {
			m.confirmTarget = e.Name
			m.mode = ModeConfirmInstall
		}
	case "esc":
		// An active pull keeps running in the background; the next visit
		// shows its current state.
		m.mode = ModeNormal
	case "h", "?":
		m.prevMode = ModeInstall
		m.mode = ModeHelp
	case "ctrl+c":
		if m.regFilterText != "" {
			m.regFilterText = ""
			m.regInput.SetValue("")
			m.applyRegistryFilter()
			m.status = "filter cleared"
		}
	}
	return m, nil
}

func (m *Model) updateInstallFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.regInput.Blur()
		m.mode = ModeInstall
		if m.regFilterText != "" {
			m.status = fmt.Sprintf("filter: %q (%d entries)", m.regFilterText, len(m.regView))
		}
		return m, nil
	case "esc":
		m.regFilterText = ""
		m.regInput.SetValue("")
		m.regInput.Blur()
		m.applyRegistryFilter()
		m.mode = ModeInstall
		m.status = "filter cleared"
		return m, nil
	case "ctrl+c":
		m.regInput.SetValue("")
		m.regFilterText = ""
		m.applyRegistryFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.regInput, cmd = m.regInput.Update(msg)
	m.regFilterText = m.regInput.Value()
	m.applyRegistryFilter()
	return m, cmd
}

func (m *Model) updateConfirmInstall(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name := m.confirmTarget
		m.confirmTarget = ""
		m.mode = ModeInstall
		return m, m.startPull(name)
	case "n", "N", "esc":
		m.confirmTarget = ""
		m.mode = ModeInstall
	}
	return m, nil
}

func (m *Model) enterFilter() {
	m.filterInput.SetValue(m.filterText)
	m.filterInput.CursorEnd()
	m.filterInput.Focus()
	m.mode = ModeFilter
	m.status = ""
}

func (m *Model) clearFilter() {
	m.filterText = ""
	m.filterInput.SetValue("")
	m.applyFilter()
	m.status = "filter cleared"
}

// moveSelection moves within the filtered view, clamped at both ends, and
// schedules a detail fetch when landing on a model without cached details.
func (m *Model) moveSelection(delta int) tea.Cmd {
	if len(m.view) == 0 {
		m.selected = -1
		return nil
	}
	next := filter.Clamp(m.selected+delta, len(m.view))
	if next == m.selected {
		return nil
	}
	m.selected = next
	return m.maybeFetchDetails()
}

func (m *Model) onList(msg listMsg) (tea.Model, tea.Cmd) {
	m.settle(opList, "")
	if msg.err != nil {
		// Keep the existing list untouched on failure.
		m.status = "refresh failed: " + msg.err.Error()
		return m, nil
	}
	prevName := ""
	if mod, ok := m.selectedModel(); ok {
		prevName = mod.Name
	}
	prevIdx := m.selected
	m.models = msg.models
	m.view = filter.Apply(m.modelNames(), m.filterText)

	// Re-resolve selection: same name first, then clamped index, then none.
	m.selected = -1
	if prevName != "" {
		for vi, item := range m.view {
			if m.models[item].Name == prevName {
				m.selected = vi
				break
			}
		}
	}
	if m.selected == -1 && len(m.view) > 0 {
		m.selected = filter.Clamp(prevIdx, len(m.view))
	}

	for name := range m.details {
		if !m.hasModel(name) {
			delete(m.details, name)
		}
	}
	return m, m.maybeFetchDetails()
}

func (m *Model) onDetails(msg detailsMsg) (tea.Model, tea.Cmd) {
	m.settle(opDetails, msg.name)
	if !m.hasModel(msg.name) {
		// Stale response for a model that has since been removed.
		return m, nil
	}
	if msg.err != nil {
		m.status = "details: " + msg.err.Error()
		return m, nil
	}
	m.details[msg.name] = msg.show
	return m, nil
}

func (m *Model) onDelete(msg deleteMsg) (tea.Model, tea.Cmd) {
	m.settle(opDelete, msg.name)
	if msg.err != nil {
		// Never remove anything on a failed delete.
		m.status = "delete failed: " + msg.err.Error()
		return m, nil
	}
	prevPos := m.selected
	removed := false
	models := m.models[:0:0]
	for _, mod := range m.models {
		if !removed && mod.Name == msg.name {
			removed = true
			continue
		}
		models = append(models, mod)
	}
	m.models = models
	delete(m.details, msg.name)
	m.view = filter.Apply(m.modelNames(), m.filterText)
	m.selected = filter.Clamp(prevPos, len(m.view))
	m.status = "deleted " + msg.name
	return m, m.maybeFetchDetails()
}

func (m *Model) onRun(msg runMsg) (tea.Model, tea.Cmd) {
	m.settle(opRun, msg.name)
	if msg.err != nil {
		m.status = "run failed: " + msg.err.Error()
		return m, nil
	}
	m.status = msg.name + " loaded"
	return m, nil
}

func (m *Model) onRegistry(msg registryMsg) (tea.Model, tea.Cmd) {
	m.settle(opRegistry, "")
	if msg.err != nil {
		m.status = "registry: " + msg.err.Error()
		if m.mode == ModeInstall || m.mode == ModeInstallFilter {
			m.mode = ModeNormal
		}
		return m, nil
	}
	m.entries = msg.entries
	m.registryLoaded = true
	m.applyRegistryFilter()
	return m, nil
}

func (m *Model) onPullFrame(msg pullFrameMsg) (tea.Model, tea.Cmd) {
	if m.pull == nil || m.pull.name != msg.name {
		return m, nil
	}
	f := msg.frame
	// Completed bytes never go backwards for a given layer digest.
	if f.Digest != "" {
		if prev, ok := m.pullSeen[f.Digest]; ok && f.Completed < prev {
			f.Completed = prev
		} else {
			m.pullSeen[f.Digest] = f.Completed
		}
	}
	m.pull.last = f
	return m, m.pull.listen()
}

func (m *Model) onPullDone(msg pullDoneMsg) (tea.Model, tea.Cmd) {
	m.settle(opPull, msg.name)
	if m.pull != nil && m.pull.name == msg.name {
		m.pull = nil
	}
	m.pullSeen = make(map[string]int64)
	if msg.err != nil {
		m.status = "pull failed: " + msg.err.Error()
		return m, nil
	}
	m.status = "pull complete: " + msg.name
	return m, m.listCmd()
}
