package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// helpSection represents a group of keybindings for display.
type helpSection struct {
	title string
	rows  [][]string // Each row: [keys, description]
}

func bindingRow(b key.Binding) []string {
	h := b.Help()
	return []string{h.Key, h.Desc}
}

// getHelpSections returns the help content organized into sections.
func getHelpSections(keys KeyMap) []helpSection {
	return []helpSection{
		{
			title: "ISSUES",
			rows: [][]string{
				bindingRow(keys.Up),
				bindingRow(keys.Home),
				bindingRow(keys.End),
				bindingRow(keys.PageUp),
				bindingRow(keys.PageDown),
				bindingRow(keys.Expand),
				bindingRow(keys.LoadMore),
				bindingRow(keys.Copy),
			},
		},
		{
			title: "WIDGET",
			rows: [][]string{
				bindingRow(keys.Refresh),
				bindingRow(keys.Configure),
				bindingRow(keys.Help),
				bindingRow(keys.Quit),
			},
		},
		{
			title: "CONFIGURATION",
			rows: [][]string{
				bindingRow(keys.NextField),
				bindingRow(keys.PrevField),
				bindingRow(keys.Prev),
				bindingRow(keys.PrevTab),
				bindingRow(keys.AllItems),
				bindingRow(keys.Apply),
				bindingRow(keys.Save),
				bindingRow(keys.Cancel),
			},
		},
	}
}

// renderHelpOverlay creates the centered help modal. intro is rendered
// markdown shown above the key tables.
func renderHelpOverlay(keys KeyMap, intro string, width, height int) string {
	sections := getHelpSections(keys)

	leftCol := renderHelpSectionTable(sections[0])
	rightCol := lipgloss.JoinVertical(lipgloss.Left,
		renderHelpSectionTable(sections[1]),
		"",
		renderHelpSectionTable(sections[2]),
	)
	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, "    ", rightCol)

	title := styleHelpTitle.Render("✦ YOUTRACK ISSUES ✦")
	dividerWidth := lipgloss.Width(columns)
	if dividerWidth < 40 {
		dividerWidth = 40
	}
	divider := styleHelpDivider.Render(strings.Repeat("─", dividerWidth))
	footer := styleHelpFooter.Render("Press ? or Esc to close")

	parts := []string{title, divider}
	if intro != "" {
		parts = append(parts, "", intro)
	}
	parts = append(parts, "", columns, "", footer)
	styled := styleHelpOverlay.Render(lipgloss.JoinVertical(lipgloss.Center, parts...))

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		styled,
		lipgloss.WithWhitespaceChars(" "),
	)
}

// renderHelpSectionTable renders a single help section using lipgloss/table.
func renderHelpSectionTable(section helpSection) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styleHelpKey.Width(14)
			}
			return styleHelpDesc
		}).
		Rows(section.rows...)

	header := styleHelpSectionHeader.Render(section.title)
	underline := styleHelpDivider.Render(strings.Repeat("─", len(section.title)))

	// Hidden border adds an empty top row.
	tableStr := strings.TrimPrefix(t.String(), "\n")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		underline,
		tableStr,
	)
}

const helpIntro = `The widget shows the issues matching a **YouTrack search** and refreshes
them in the background. Press **c** to change the query, context, title or
refresh period.`
