package ui

import (
	"strings"

	appErrors "ytissues/internal/errors"
	"ytissues/internal/i18n"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
)

// chromeHeight is the number of lines around the issue list: title bar,
// status line and footer.
const chromeHeight = 3

func (m *App) View() string {
	if !m.ready {
		return ""
	}
	if m.showHelp {
		intro := buildMarkdownRenderer(m.cfg.OutputFormat, 60)(helpIntro)
		return renderHelpOverlay(m.keys, intro, m.width, m.height)
	}

	body := m.renderBody()
	parts := []string{m.renderHeader(), body}
	if status := m.renderStatusLine(); status != "" || m.state.View() == widget.ViewList {
		parts = append(parts, status)
	}
	parts = append(parts, m.renderFooter())
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.toast != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, styleToast.Render(m.toast))
	}
	return view
}

func (m *App) renderHeader() string {
	title := m.title
	if title == "" {
		title = m.state.DisplayTitle()
	}
	header := styleTitleBar.Render(title)
	if m.spinning() {
		header += " " + m.spinner.View()
	}
	if m.titleHref != "" {
		avail := m.width - lipgloss.Width(header) - 1
		if avail > 10 {
			header += " " + styleTitleLink.Render(ansi.Truncate(m.titleHref, avail, "…"))
		}
	}
	return header
}

func (m *App) renderBody() string {
	tr := m.tr
	switch m.state.View() {
	case widget.ViewLoader:
		return m.spinner.View() + " " + styleMuted.Render("…")
	case widget.ViewError:
		msg := tr.T(i18n.MsgCantLoad)
		switch m.state.Failure {
		case appErrors.CodeConfigurationError:
			if m.state.IsNew && m.state.ReadOnly {
				msg = tr.T(i18n.MsgReadOnlyNew)
			}
		case appErrors.CodeServiceUnavailable:
			msg = tr.T(i18n.MsgServiceNotFound)
		}
		return styleError.Render(wordwrap.String(msg, maxInt(m.width, 20)))
	case widget.ViewConfiguring:
		if m.form == nil {
			return ""
		}
		return m.form.View(m.width)
	case widget.ViewEmpty:
		text := tr.T(i18n.MsgNoIssues)
		if m.titleHref != "" {
			text += "\n\n" + m.titleHref
		}
		return buildMarkdownRenderer(m.cfg.OutputFormat, maxInt(m.width-2, 20))(text)
	default:
		return m.viewport.View()
	}
}

func (m *App) renderStatusLine() string {
	var parts []string
	if more := m.state.LoadMoreCount(); more > 0 {
		if m.state.NextPageLoading {
			parts = append(parts, styleLoadMore.Render(m.tr.T(i18n.MsgLoadingMore)))
		} else {
			parts = append(parts, styleLoadMore.Render(m.tr.T(i18n.MsgLoadMore, more)))
		}
	}
	if m.state.FromCache {
		parts = append(parts, styleMuted.Render(m.tr.T(i18n.MsgFromCache)))
	}
	if m.state.LoadError && m.state.FromCache {
		parts = append(parts, styleError.Render(m.tr.T(i18n.MsgCantLoad)))
	}
	if m.state.View() == widget.ViewList && allResolved(m.state.Issues) {
		parts = append(parts, styleMuted.Render(m.tr.T(i18n.MsgAllResolved)))
	}
	if !m.state.FetchedAt.IsZero() && m.state.View() == widget.ViewList {
		parts = append(parts, styleMuted.Render(m.tr.T(i18n.MsgUpdated, humanize.RelTime(m.state.FetchedAt, timeNow(), "ago", "from now"))))
	}
	return ansi.Truncate(strings.Join(parts, styleMuted.Render(" · ")), maxInt(m.width, 1), "…")
}

// updateViewportContent re-renders the issue list and keeps the cursor row
// visible.
func (m *App) updateViewportContent() {
	if !m.ready {
		return
	}
	var lines []string
	cursorTop, cursorBottom := 0, 0
	for i, issue := range m.state.Issues {
		if i == m.cursor {
			cursorTop = len(lines)
		}
		lines = append(lines, m.renderIssueLine(issue, i == m.cursor))
		if m.expanded[issue.ID] {
			lines = append(lines, m.renderIssueFields(issue)...)
		}
		if i == m.cursor {
			cursorBottom = len(lines) - 1
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	switch {
	case cursorTop < m.viewport.YOffset:
		m.viewport.SetYOffset(cursorTop)
	case cursorBottom >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m *App) renderIssueLine(issue youtrack.Issue, selected bool) string {
	square := styleEmptySquare.Render("   ")
	if sq := youtrack.ColoredSquare(issue); sq != nil {
		square = squareStyle(sq.Foreground, sq.Background).Render(sq.Letter)
	}

	summary := styleSummary
	if issue.IsResolved() {
		summary = styleResolved
	}
	id := styleID.Render(issue.IDReadable)
	line := square + " " + id + " " + summary.Render(issue.Summary)
	if selected {
		line = styleSelected.Render("▸") + " " + line
	} else {
		line = "  " + line
	}
	return ansi.Truncate(line, maxInt(m.width, 10), "…")
}

func (m *App) renderIssueFields(issue youtrack.Issue) []string {
	fields := youtrack.ValuableFields(issue)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		value := youtrack.FieldPresentation(f, m.formats, m.cfg.Location)
		if value == "" {
			continue
		}
		line := "        " + styleField.Render(f.Name()+":") + " " + styleVal.Render(value)
		lines = append(lines, ansi.Truncate(line, maxInt(m.width, 10), "…"))
	}
	return lines
}

func allResolved(issues []youtrack.Issue) bool {
	for _, issue := range issues {
		if !issue.IsResolved() {
			return false
		}
	}
	return len(issues) > 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
