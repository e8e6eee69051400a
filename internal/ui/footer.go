package ui

import (
	"strings"

	"ytissues/internal/i18n"
	"ytissues/internal/widget"

	"github.com/charmbracelet/lipgloss"
)

// footerHint is a key hint for the footer bar.
type footerHint struct {
	key  string
	desc string
}

var listFooterHints = []footerHint{
	{"↑↓", "Navigate"},
	{"⏎", "Expand"},
	{"y", "Copy link"},
}

var formFooterHints = []footerHint{
	{"⇥", "Field"},
	{"←→", "Choose"},
	{"^s", "Save"},
	{"esc", "Cancel"},
}

// renderFooter renders the footer bar with pill-style key hints and the
// service name on the right.
func (m *App) renderFooter() string {
	var hints []footerHint
	switch m.state.View() {
	case widget.ViewConfiguring:
		hints = append(hints, formFooterHints...)
	case widget.ViewList:
		hints = append(hints, listFooterHints...)
		if m.state.LoadMoreCount() > 0 {
			hints = append(hints, footerHint{"m", "More"})
		}
	}
	if m.state.Phase != widget.PhaseConfiguring {
		hints = append(hints,
			footerHint{"r", m.tr.T(i18n.MsgRefresh)},
			footerHint{"c", m.tr.T(i18n.MsgConfigure)},
			footerHint{"q", "Quit"},
			footerHint{"?", "Help"},
		)
	}

	right := ""
	if svc := m.state.Service; svc != nil {
		name := svc.Name
		if name == "" {
			name = svc.HomeURL
		}
		right = styleMuted.Render(name)
	}
	rightWidth := lipgloss.Width(right)

	hints = trimHintsToFit(hints, m.width-rightWidth-4)
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyPill(h.key, h.desc))
	}
	left := strings.Join(parts, "  ")

	spacing := m.width - lipgloss.Width(left) - rightWidth
	if spacing < 2 {
		spacing = 2
	}
	return left + strings.Repeat(" ", spacing) + right
}

// trimHintsToFit drops hints from the end until the bar fits.
func trimHintsToFit(hints []footerHint, width int) []footerHint {
	for len(hints) > 0 {
		total := 0
		for i, h := range hints {
			if i > 0 {
				total += 2
			}
			total += lipgloss.Width(keyPill(h.key, h.desc))
		}
		if total <= width {
			break
		}
		hints = hints[:len(hints)-1]
	}
	return hints
}

// keyPill renders a single key hint as a pill with description.
func keyPill(key, desc string) string {
	return styleKeyPill.Render(" "+key+" ") + " " + styleKeyDesc.Render(desc)
}
