package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modeldash/internal/api"
	"modeldash/internal/config"
	"modeldash/internal/logging"
	"modeldash/internal/registry"
)

// fakeRuntime is an in-memory Runtime for driving Update by hand.
type fakeRuntime struct {
	models     []api.Model
	listErr    error
	listCalls  int
	shown      []string
	showErr    error
	deleted    []string
	deleteErr  error
	ran        []string
	runErr     error
	pullFrames []api.PullProgress
	pullErr    error
}

func (f *fakeRuntime) ListModels(ctx context.Context) ([]api.Model, error) {
	f.listCalls++
	return f.models, f.listErr
}

func (f *fakeRuntime) ShowModel(ctx context.Context, name string) (*api.ShowResponse, error) {
	f.shown = append(f.shown, name)
	if f.showErr != nil {
		return nil, f.showErr
	}
	return &api.ShowResponse{Details: api.ModelDetails{Family: "llama"}}, nil
}

func (f *fakeRuntime) DeleteModel(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

func (f *fakeRuntime) RunModel(ctx context.Context, name string) error {
	f.ran = append(f.ran, name)
	return f.runErr
}

func (f *fakeRuntime) Pull(ctx context.Context, name string, frames chan<- api.PullProgress) error {
	for _, fr := range f.pullFrames {
		frames <- fr
	}
	return f.pullErr
}

type fakeCatalog struct {
	entries []registry.Entry
	err     error
	calls   int
}

func (f *fakeCatalog) Library(ctx context.Context) ([]registry.Entry, error) {
	f.calls++
	return f.entries, f.err
}

func testModels() []api.Model {
	return []api.Model{
		{Name: "llama2", Size: 3_800_000_000, ModifiedAt: time.Now()},
		{Name: "mistral", Size: 4_100_000_000, ModifiedAt: time.Now()},
		{Name: "llama3", Size: 4_700_000_000, ModifiedAt: time.Now()},
	}
}

func setupTestModel(t *testing.T) (*Model, *fakeRuntime, *fakeCatalog) {
	t.Helper()

	rt := &fakeRuntime{models: testModels()}
	cat := &fakeCatalog{entries: []registry.Entry{
		{Name: "codellama", Description: "code models"},
		{Name: "llama2", Description: "foundation models"},
		{Name: "phi3", Description: "small models"},
	}}
	log, err := logging.NewFile("error", "")
	if err != nil {
		t.Fatalf("logging.NewFile: %v", err)
	}

	m := New(config.Default(), rt, cat, log, rt.models)
	m.w = 120
	m.h = 40
	return m, rt, cat
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var um tea.Model
		um, cmd = m.Update(key(k))
		if um.(*Model) != m {
			t.Fatal("Update returned a different model pointer")
		}
	}
	return cmd
}

func TestNavigation_ClampedMovement(t *testing.T) {
	m, _, _ := setupTestModel(t)

	if m.selected != 0 {
		t.Fatalf("initial selection = %d, want 0", m.selected)
	}

	t.Run("down moves by one", func(t *testing.T) {
		press(t, m, "j")
		if m.selected != 1 {
			t.Errorf("selected = %d, want 1", m.selected)
		}
		press(t, m, "down")
		if m.selected != 2 {
			t.Errorf("selected = %d, want 2", m.selected)
		}
	})

	t.Run("down clamps at last item", func(t *testing.T) {
		m.selected = 2
		press(t, m, "j")
		if m.selected != 2 {
			t.Errorf("selected = %d, want 2 (no wrap)", m.selected)
		}
	})

	t.Run("up clamps at first item", func(t *testing.T) {
		m.selected = 0
		press(t, m, "k")
		if m.selected != 0 {
			t.Errorf("selected = %d, want 0 (no wrap)", m.selected)
		}
		press(t, m, "up")
		if m.selected != 0 {
			t.Errorf("selected = %d, want 0", m.selected)
		}
	})

	t.Run("movement on empty list keeps no selection", func(t *testing.T) {
		m.models = nil
		m.applyFilter()
		press(t, m, "j", "k", "j")
		if m.selected != -1 {
			t.Errorf("selected = %d, want -1 on empty list", m.selected)
		}
	})
}

func TestNavigation_MoveSchedulesDetailFetch(t *testing.T) {
	m, rt, _ := setupTestModel(t)

	cmd := press(t, m, "j")
	if cmd == nil {
		t.Fatal("expected a detail fetch command after moving onto an uncached model")
	}
	msg := cmd()
	dm, ok := msg.(detailsMsg)
	if !ok {
		t.Fatalf("cmd produced %T, want detailsMsg", msg)
	}
	if dm.name != "mistral" {
		t.Errorf("fetched details for %q, want mistral", dm.name)
	}
	if len(rt.shown) != 1 {
		t.Errorf("ShowModel called %d times, want 1", len(rt.shown))
	}

	m.Update(dm)
	if _, have := m.details["mistral"]; !have {
		t.Error("details not cached after detailsMsg")
	}

	// Cached details do not trigger a second fetch.
	press(t, m, "k")
	if cmd := press(t, m, "j"); cmd != nil {
		t.Error("expected no fetch command when details are already cached")
	}
}

func TestQuit_OnlyFromNormalMode(t *testing.T) {
	t.Run("q quits in normal mode", func(t *testing.T) {
		m, _, _ := setupTestModel(t)
		cmd := press(t, m, "q")
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("q did not produce tea.QuitMsg")
		}
	})

	t.Run("q is text while filtering", func(t *testing.T) {
		m, _, _ := setupTestModel(t)
		press(t, m, "/", "q")
		if m.mode != ModeFilter {
			t.Errorf("mode = %v, want filter", m.mode)
		}
		if m.filterText != "q" {
			t.Errorf("filterText = %q, want %q", m.filterText, "q")
		}
	})

	t.Run("ctrl+c never quits", func(t *testing.T) {
		m, _, _ := setupTestModel(t)
		cmd := press(t, m, "ctrl+c")
		if cmd != nil {
			if _, ok := cmd().(tea.QuitMsg); ok {
				t.Error("ctrl+c produced a quit")
			}
		}
	})
}

func TestFilter_LiveNarrowing(t *testing.T) {
	m, _, _ := setupTestModel(t)

	press(t, m, "/", "l", "l")
	if m.mode != ModeFilter {
		t.Fatalf("mode = %v, want filter", m.mode)
	}
	if len(m.view) != 2 {
		t.Fatalf("view has %d items, want 2 for %q", len(m.view), "ll")
	}
	got := []string{m.models[m.view[0]].Name, m.models[m.view[1]].Name}
	if got[0] != "llama2" || got[1] != "llama3" {
		t.Errorf("view = %v, want [llama2 llama3]", got)
	}

	t.Run("enter keeps the filter", func(t *testing.T) {
		press(t, m, "enter")
		if m.mode != ModeNormal {
			t.Errorf("mode = %v, want normal", m.mode)
		}
		if m.filterText != "ll" {
			t.Errorf("filterText = %q, want %q", m.filterText, "ll")
		}
		if len(m.view) != 2 {
			t.Errorf("view has %d items after enter, want 2", len(m.view))
		}
	})

	t.Run("ctrl+c clears the kept filter", func(t *testing.T) {
		press(t, m, "ctrl+c")
		if m.filterText != "" {
			t.Errorf("filterText = %q, want empty", m.filterText)
		}
		if len(m.view) != 3 {
			t.Errorf("view has %d items after clear, want 3", len(m.view))
		}
	})
}

func TestFilter_EscClears(t *testing.T) {
	m, _, _ := setupTestModel(t)

	press(t, m, "/", "m", "i", "esc")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
	if m.filterText != "" {
		t.Errorf("filterText = %q, want empty after esc", m.filterText)
	}
	if len(m.view) != len(m.models) {
		t.Errorf("view has %d items, want full list", len(m.view))
	}
}

func TestFilter_SelectionFollowsModel(t *testing.T) {
	m, _, _ := setupTestModel(t)

	// Select llama3 (index 2), then filter down to the two llamas.
	m.selected = 2
	press(t, m, "/", "l", "l")
	if mod, ok := m.selectedModel(); !ok || mod.Name != "llama3" {
		t.Errorf("selection did not follow llama3 through the filter")
	}

	// Filter llama3 out entirely; selection falls to the first match.
	press(t, m, "a", "m", "a", "2")
	if mod, ok := m.selectedModel(); !ok || mod.Name != "llama2" {
		t.Errorf("selection should fall back to first visible model, got %+v", mod)
	}

	// No match at all.
	press(t, m, "x")
	if m.selected != -1 {
		t.Errorf("selected = %d, want -1 when nothing matches", m.selected)
	}
}

func TestConfirmDelete_Flow(t *testing.T) {
	m, rt, _ := setupTestModel(t)

	t.Run("d requires a selection", func(t *testing.T) {
		m.models = nil
		m.applyFilter()
		press(t, m, "d")
		if m.mode != ModeNormal {
			t.Errorf("mode = %v, want normal when nothing selected", m.mode)
		}
	})

	m.models = testModels()
	m.applyFilter()

	t.Run("n cancels without deleting", func(t *testing.T) {
		press(t, m, "d")
		if m.mode != ModeConfirmDelete || m.confirmTarget != "llama2" {
			t.Fatalf("mode=%v target=%q, want confirm-delete llama2", m.mode, m.confirmTarget)
		}
		press(t, m, "n")
		if m.mode != ModeNormal || len(rt.deleted) != 0 {
			t.Errorf("cancel deleted something: %v", rt.deleted)
		}
	})

	t.Run("other keys are no-ops in confirm", func(t *testing.T) {
		press(t, m, "d", "j", "x", "q")
		if m.mode != ModeConfirmDelete {
			t.Fatalf("mode = %v, want confirm-delete", m.mode)
		}
		if len(rt.deleted) != 0 {
			t.Errorf("stray key triggered delete: %v", rt.deleted)
		}
		press(t, m, "esc")
	})

	t.Run("y deletes the confirmed model", func(t *testing.T) {
		m.selected = 1
		cmd := press(t, m, "d", "y")
		if cmd == nil {
			t.Fatal("expected delete command")
		}
		msg := cmd()
		dm, ok := msg.(deleteMsg)
		if !ok {
			t.Fatalf("cmd produced %T, want deleteMsg", msg)
		}
		if dm.name != "mistral" || dm.err != nil {
			t.Fatalf("deleteMsg = %+v", dm)
		}
		m.Update(dm)
		if len(m.models) != 2 {
			t.Fatalf("models = %d, want 2 after delete", len(m.models))
		}
		if m.hasModel("mistral") {
			t.Error("mistral still present after delete")
		}
		// Selection stays at the same view position, now llama3.
		if mod, ok := m.selectedModel(); !ok || mod.Name != "llama3" {
			t.Errorf("selection after delete = %+v, want llama3", mod)
		}
	})
}

func TestDelete_RemovesExactlyOneOfDuplicates(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.models = []api.Model{{Name: "a"}, {Name: "b"}, {Name: "a"}}
	m.applyFilter()

	m.Update(deleteMsg{name: "a"})
	if len(m.models) != 2 {
		t.Fatalf("models = %d, want 2", len(m.models))
	}
	if m.models[0].Name != "b" || m.models[1].Name != "a" {
		t.Errorf("models = %v, want [b a]", []string{m.models[0].Name, m.models[1].Name})
	}
}

func TestDelete_FailureKeepsList(t *testing.T) {
	m, _, _ := setupTestModel(t)

	m.Update(deleteMsg{name: "llama2", err: context.DeadlineExceeded})
	if len(m.models) != 3 {
		t.Errorf("models = %d, want 3 after failed delete", len(m.models))
	}
	if m.status == "" {
		t.Error("expected a failure status message")
	}
}

func TestList_SelectionReResolvedByName(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.selected = 1 // mistral

	// Refresh comes back reordered with a new model in front.
	m.Update(listMsg{models: []api.Model{
		{Name: "gemma"},
		{Name: "llama3"},
		{Name: "mistral"},
	}})
	if mod, ok := m.selectedModel(); !ok || mod.Name != "mistral" {
		t.Errorf("selection = %+v, want mistral by name", mod)
	}

	// Selected model gone: fall back to clamped index.
	m.Update(listMsg{models: []api.Model{{Name: "gemma"}}})
	if mod, ok := m.selectedModel(); !ok || mod.Name != "gemma" {
		t.Errorf("selection = %+v, want gemma via clamped index", mod)
	}

	// Empty refresh: no selection.
	m.Update(listMsg{models: nil})
	if m.selected != -1 {
		t.Errorf("selected = %d, want -1 for empty list", m.selected)
	}
}

func TestList_FailureKeepsCurrentList(t *testing.T) {
	m, _, _ := setupTestModel(t)

	m.Update(listMsg{err: context.DeadlineExceeded})
	if len(m.models) != 3 {
		t.Errorf("models = %d, want 3 untouched after failed refresh", len(m.models))
	}
}

func TestHelp_ReturnsToCallerMode(t *testing.T) {
	m, _, _ := setupTestModel(t)

	press(t, m, "h")
	if m.mode != ModeHelp {
		t.Fatalf("mode = %v, want help", m.mode)
	}
	press(t, m, "x")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want normal after help", m.mode)
	}

	m.registryLoaded = true
	press(t, m, "i", "?")
	if m.mode != ModeHelp {
		t.Fatalf("mode = %v, want help", m.mode)
	}
	press(t, m, "q")
	if m.mode != ModeInstall {
		t.Errorf("mode = %v, want install after help", m.mode)
	}
}

func TestView_RendersWithoutPanicAcrossModes(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	modes := []Mode{ModeNormal, ModeFilter, ModeConfirmDelete, ModeInstall, ModeInstallFilter, ModeConfirmInstall, ModeHelp}
	for _, mode := range modes {
		m.mode = mode
		if m.View() == "" {
			t.Errorf("empty view in mode %v", mode)
		}
	}
}
