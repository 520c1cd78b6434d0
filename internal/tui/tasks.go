package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modeldash/internal/api"
	"modeldash/internal/registry"
)

// Task coordinator. Every network operation runs inside a tea.Cmd and comes
// back as exactly one tagged message (pulls come back as a frame stream plus
// one terminal message). The inflight set keys on (kind, target); a request
// that duplicates an outstanding one is dropped, never queued.

const (
	opList     = "list"
	opDetails  = "details"
	opDelete   = "delete"
	opPull     = "pull"
	opRegistry = "registry"
	opRun      = "run"
)

func opKey(kind, target string) string { return kind + "|" + target }

type tickMsg time.Time

type listMsg struct {
	models []api.Model
	err    error
}

type detailsMsg struct {
	name string
	show *api.ShowResponse
	err  error
}

type deleteMsg struct {
	name string
	err  error
}

type runMsg struct {
	name string
	err  error
}

type registryMsg struct {
	entries []registry.Entry
	err     error
}

type pullFrameMsg struct {
	name  string
	frame api.PullProgress
}

type pullDoneMsg struct {
	name string
	err  error
}

// dispatch registers (kind, target) as in flight and returns cmd, or nil
// when an identical operation is already outstanding.
func (m *Model) dispatch(kind, target string, cmd tea.Cmd) tea.Cmd {
	key := opKey(kind, target)
	if _, busy := m.inflight[key]; busy {
		return nil
	}
	m.inflight[key] = struct{}{}
	return cmd
}

func (m *Model) settle(kind, target string) {
	delete(m.inflight, opKey(kind, target))
}

func (m *Model) listCmd() tea.Cmd {
	return m.dispatch(opList, "", func() tea.Msg {
		models, err := m.rt.ListModels(context.Background())
		return listMsg{models: models, err: err}
	})
}

func (m *Model) detailsCmd(name string) tea.Cmd {
	return m.dispatch(opDetails, name, func() tea.Msg {
		show, err := m.rt.ShowModel(context.Background(), name)
		return detailsMsg{name: name, show: show, err: err}
	})
}

// maybeFetchDetails schedules a detail fetch for the current selection when
// none is cached. Duplicate fetches for the same name are dropped by dispatch.
func (m *Model) maybeFetchDetails() tea.Cmd {
	mod, ok := m.selectedModel()
	if !ok {
		return nil
	}
	if _, have := m.details[mod.Name]; have {
		return nil
	}
	return m.detailsCmd(mod.Name)
}

func (m *Model) deleteCmd(name string) tea.Cmd {
	return m.dispatch(opDelete, name, func() tea.Msg {
		err := m.rt.DeleteModel(context.Background(), name)
		return deleteMsg{name: name, err: err}
	})
}

func (m *Model) runCmd(name string) tea.Cmd {
	return m.dispatch(opRun, name, func() tea.Msg {
		err := m.rt.RunModel(context.Background(), name)
		return runMsg{name: name, err: err}
	})
}

func (m *Model) registryCmd() tea.Cmd {
	return m.dispatch(opRegistry, "", func() tea.Msg {
		entries, err := m.cat.Library(context.Background())
		return registryMsg{entries: entries, err: err}
	})
}

// startPull opens the progress stream for name. Only one pull runs at a
// time: a duplicate for the same name is dropped silently, a pull for a
// different name is refused with a status message while one is active.
func (m *Model) startPull(name string) tea.Cmd {
	key := opKey(opPull, name)
	if _, busy := m.inflight[key]; busy {
		return nil
	}
	if m.pull != nil {
		m.status = fmt.Sprintf("pull of %s still in progress", m.pull.name)
		return nil
	}
	m.inflight[key] = struct{}{}
	ps := &pullState{
		name:   name,
		frames: make(chan api.PullProgress, 32),
		done:   make(chan error, 1),
	}
	m.pull = ps
	m.pullSeen = make(map[string]int64)
	m.status = "pulling " + name + "..."

	pump := func() tea.Msg {
		err := m.rt.Pull(context.Background(), name, ps.frames)
		ps.done <- err
		close(ps.frames)
		return nil
	}
	return tea.Batch(pump, ps.listen(), m.tickCmd())
}

// listen delivers the next frame, or the terminal result once the stream is
// drained. Re-armed from Update after every frame, which keeps frames for one
// pull strictly ordered while letting unrelated messages interleave.
func (ps *pullState) listen() tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-ps.frames
		if !ok {
			return pullDoneMsg{name: ps.name, err: <-ps.done}
		}
		return pullFrameMsg{name: ps.name, frame: frame}
	}
}

// tickCmd drives periodic redraws while a pull is active.
func (m *Model) tickCmd() tea.Cmd {
	hz := m.cfg.UI.RefreshHz
	if hz <= 0 {
		hz = 4
	}
	if hz > 10 {
		hz = 10
	}
	return tea.Tick(time.Second/time.Duration(hz), func(t time.Time) tea.Msg { return tickMsg(t) })
}
