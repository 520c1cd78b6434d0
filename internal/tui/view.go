package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.w == 0 {
		return "loading..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	switch m.mode {
	case ModeHelp:
		sb.WriteString(m.renderHelp())
	case ModeInstall, ModeInstallFilter, ModeConfirmInstall:
		sb.WriteString(m.renderInstall())
	default:
		sb.WriteString(m.renderMain())
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m *Model) renderHeader() string {
	title := m.th.title.Render("modeldash")
	host := m.th.label.Render(m.cfg.HostURL())
	count := fmt.Sprintf("%d models", len(m.models))
	if m.filterText != "" {
		count = fmt.Sprintf("%d/%d models", len(m.view), len(m.models))
	}
	return title + "  " + host + "  " + m.th.label.Render(count)
}

func (m *Model) renderMain() string {
	listW := m.w * 3 / 5
	if listW < 30 {
		listW = 30
	}
	detailW := m.w - listW - 6
	if detailW < 20 {
		detailW = 20
	}
	left := m.th.border.Width(listW).Render(m.renderModelTable())
	right := m.th.border.Width(detailW).Render(m.renderDetails())
	out := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	if m.mode == ModeConfirmDelete {
		out += "\n" + m.th.prompt.Render(fmt.Sprintf("delete %s? (y/n)", m.confirmTarget))
	}
	return out
}

func (m *Model) renderModelTable() string {
	var sb strings.Builder
	sb.WriteString(m.th.head.Render(fmt.Sprintf("%-30s  %-10s  %-12s", "NAME", "SIZE", "MODIFIED")))
	sb.WriteString("\n")

	maxRows := m.maxRowsOnScreen()
	for vi, item := range m.view {
		mod := m.models[item]
		name := truncateMiddle(mod.Name, 30)
		size := humanize.Bytes(uint64(mod.Size))
		age := humanize.Time(mod.ModifiedAt)
		line := fmt.Sprintf("%-30s  %-10s  %-12s", name, size, age)
		if vi == m.selected {
			line = m.th.rowSelected.Render("> " + line)
		} else {
			line = m.th.row.Render("  " + line)
		}
		sb.WriteString(line + "\n")
		if vi+1 >= maxRows {
			break
		}
	}
	if len(m.view) == 0 {
		if m.filterText != "" {
			sb.WriteString(m.th.label.Render("(no models match)"))
		} else {
			sb.WriteString(m.th.label.Render("(no models installed)"))
		}
	}

	if m.mode == ModeFilter {
		sb.WriteString("\n" + m.filterInput.View())
	} else if m.filterText != "" {
		sb.WriteString("\n" + m.th.label.Render("filter: "+m.filterText))
	}
	return sb.String()
}

func (m *Model) renderDetails() string {
	mod, ok := m.selectedModel()
	if !ok {
		return m.th.label.Render("No selection")
	}
	var sb strings.Builder
	sb.WriteString(m.th.head.Render("Details"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Name:"), mod.Name))
	sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Size:"), humanize.Bytes(uint64(mod.Size))))
	if mod.Digest != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Digest:"), truncateMiddle(mod.Digest, 24)))
	}
	if !mod.ModifiedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Modified:"), mod.ModifiedAt.Local().Format("2006-01-02 15:04:05")))
	}

	show, have := m.details[mod.Name]
	if !have {
		sb.WriteString("\n" + m.spin.View() + m.th.label.Render(" fetching details..."))
		return sb.String()
	}
	d := show.Details
	if d.Family != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Family:"), d.Family))
	}
	if d.ParameterSize != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Params:"), d.ParameterSize))
	}
	if d.QuantizationLevel != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Quantization:"), d.QuantizationLevel))
	}
	if d.Format != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", m.th.label.Render("Format:"), d.Format))
	}
	if t := strings.TrimSpace(show.Template); t != "" {
		sb.WriteString("\n" + m.th.label.Render("Template:") + "\n")
		sb.WriteString(clipLines(t, 6) + "\n")
	}
	if p := strings.TrimSpace(show.Parameters); p != "" {
		sb.WriteString("\n" + m.th.label.Render("Parameters:") + "\n")
		sb.WriteString(clipLines(p, 6) + "\n")
	}
	return sb.String()
}

func (m *Model) renderInstall() string {
	var sb strings.Builder
	sb.WriteString(m.th.head.Render("Install from registry"))
	sb.WriteString("\n")

	if !m.registryLoaded {
		sb.WriteString(m.spin.View() + m.th.label.Render(" fetching registry..."))
		return m.th.border.Width(m.w - 4).Render(sb.String())
	}

	maxRows := m.maxRowsOnScreen()
	descW := m.w - 34
	if descW < 20 {
		descW = 20
	}
	for vi, item := range m.regView {
		e := m.entries[item]
		installed := ""
		if m.hasModelPrefix(e.Name) {
			installed = m.th.ok.Render(" *")
		}
		line := fmt.Sprintf("%-24s  %s", truncateMiddle(e.Name, 24), truncateMiddle(e.Description, descW))
		if vi == m.regSelected {
			line = m.th.rowSelected.Render("> " + line)
		} else {
			line = m.th.row.Render("  " + line)
		}
		sb.WriteString(line + installed + "\n")
		if vi+1 >= maxRows {
			break
		}
	}
	if len(m.regView) == 0 {
		sb.WriteString(m.th.label.Render("(no entries match)"))
	}

	if m.mode == ModeInstallFilter {
		sb.WriteString("\n" + m.regInput.View())
	} else if m.regFilterText != "" {
		sb.WriteString("\n" + m.th.label.Render("filter: "+m.regFilterText))
	}

	if m.pull != nil {
		sb.WriteString("\n" + m.renderPull())
	}
	if m.mode == ModeConfirmInstall {
		sb.WriteString("\n" + m.th.prompt.Render(fmt.Sprintf("pull %s? (y/n)", m.confirmTarget)))
	}
	return m.th.border.Width(m.w - 4).Render(sb.String())
}

func (m *Model) renderPull() string {
	f := m.pull.last
	status := f.Status
	if status == "" {
		status = "starting"
	}
	line := m.spin.View() + " " + m.th.title.Render(m.pull.name) + "  " + m.th.label.Render(status)
	if f.Total > 0 {
		ratio := float64(f.Completed) / float64(f.Total)
		if ratio > 1 {
			ratio = 1
		}
		line += "\n" + m.prog.ViewAs(ratio) + fmt.Sprintf("  %s / %s",
			humanize.Bytes(uint64(f.Completed)), humanize.Bytes(uint64(f.Total)))
	}
	return line
}

func (m *Model) renderHelp() string {
	rows := [][2]string{
		{"j / down", "move down"},
		{"k / up", "move up"},
		{"enter", "load selected model into memory"},
		{"d", "delete selected model (with confirm)"},
		{"i", "install from registry"},
		{"/", "filter the current list"},
		{"ctrl+c", "clear the active filter"},
		{"h / ?", "this help"},
		{"q", "quit"},
		{"", ""},
		{"in filter", "enter keeps the filter, esc clears it"},
		{"in confirm", "y confirms, n or esc cancels"},
		{"in install", "enter pulls the selected entry, esc returns"},
	}
	var sb strings.Builder
	sb.WriteString(m.th.head.Render("Keys"))
	sb.WriteString("\n")
	for _, r := range rows {
		if r[0] == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", m.th.title.Render(fmt.Sprintf("%-10s", r[0])), r[1]))
	}
	sb.WriteString("\n" + m.th.label.Render("press any key to return"))
	return m.th.border.Width(m.w - 4).Render(sb.String())
}

func (m *Model) renderFooter() string {
	var hints string
	switch m.mode {
	case ModeNormal:
		hints = "j/k move  enter run  d delete  i install  / filter  h help  q quit"
	case ModeFilter, ModeInstallFilter:
		hints = "type to filter  enter keep  esc clear  ctrl+c reset"
	case ModeConfirmDelete, ModeConfirmInstall:
		hints = "y confirm  n/esc cancel"
	case ModeInstall:
		hints = "j/k move  enter pull  / filter  esc back  h help"
	case ModeHelp:
		hints = "any key to return"
	}
	out := m.th.footer.Render(hints)
	if m.status != "" {
		style := m.th.ok
		if strings.Contains(m.status, "failed") || strings.Contains(m.status, "error") {
			style = m.th.bad
		}
		out += "\n" + style.Render(m.status)
	}
	return out
}

// hasModelPrefix reports whether any installed model is name or a tag of it.
func (m *Model) hasModelPrefix(name string) bool {
	for _, mod := range m.models {
		if mod.Name == name || strings.HasPrefix(mod.Name, name+":") {
			return true
		}
	}
	return false
}
