package ui

import (
	"ytissues/internal/debug"
	"ytissues/internal/i18n"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

var clipboardWriteAll = clipboard.WriteAll

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil
	case spinner.TickMsg:
		if !m.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case configChangedMsg:
		debug.Log("ui: widget config edited externally")
		return m, tea.Batch(m.dispatch(widget.ConfigChanged{}), waitForChange(m.changes))
	case dateFormatsMsg:
		if msg.err != nil {
			debug.Logf("ui: load date formats: %v", msg.err)
			return m, nil
		}
		if msg.homeURL == m.formatsHome {
			m.formats = msg.formats
			m.updateViewportContent()
		}
		return m, nil
	case storeFailedMsg:
		debug.Logf("ui: %s: %v", msg.op, msg.err)
		return m, m.showToast(msg.op + ": " + msg.err.Error())
	case widgetRemovedMsg:
		if msg.err != nil {
			debug.Logf("ui: remove widget: %v", msg.err)
		}
		m.removed = msg.err == nil
		return m, m.shutdown()
	case toastExpiredMsg:
		if !timeNow().Before(m.toastUntil) {
			m.toast = ""
		}
		return m, nil
	case formBootstrapMsg, formFoldersMsg, formSuggestMsg, formValidatedMsg:
		if m.form == nil {
			return m, nil
		}
		cmd := m.form.Update(msg)
		return m, tea.Batch(cmd, m.spinnerIfBusy())
	case widget.Event:
		return m, m.dispatch(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *App) spinning() bool {
	return m.loading || m.state.NextPageLoading || (m.form != nil && m.form.validating)
}

func (m *App) spinnerIfBusy() tea.Cmd {
	if m.spinning() {
		return m.spinner.Tick
	}
	return nil
}

func (m *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.shutdown()
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return nil
	}
	if m.form != nil && m.state.Phase == widget.PhaseConfiguring {
		cmd := m.form.Update(msg)
		return tea.Batch(cmd, m.spinnerIfBusy())
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.shutdown()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.updateViewportContent()
	case key.Matches(msg, m.keys.End):
		m.cursor = len(m.state.Issues) - 1
		m.clampCursor()
		m.updateViewportContent()
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, m.keys.Expand):
		if issue, ok := m.currentIssue(); ok {
			m.expanded[issue.ID] = !m.expanded[issue.ID]
			m.updateViewportContent()
		}
	case key.Matches(msg, m.keys.LoadMore):
		cmd := m.dispatch(widget.LoadMoreRequested{})
		return tea.Batch(cmd, m.spinnerIfBusy())
	case key.Matches(msg, m.keys.Refresh):
		return m.dispatch(widget.RefreshRequested{})
	case key.Matches(msg, m.keys.Configure):
		return m.dispatch(widget.ConfigureRequested{})
	case key.Matches(msg, m.keys.Copy):
		return m.copyIssueURL()
	}
	return nil
}

func (m *App) currentIssue() (youtrack.Issue, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Issues) {
		return youtrack.Issue{}, false
	}
	return m.state.Issues[m.cursor], true
}

func (m *App) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.updateViewportContent()
}

func (m *App) clampCursor() {
	if m.cursor >= len(m.state.Issues) {
		m.cursor = len(m.state.Issues) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *App) pageSize() int {
	if m.viewport.Height > 1 {
		return m.viewport.Height - 1
	}
	return 1
}

func (m *App) copyIssueURL() tea.Cmd {
	issue, ok := m.currentIssue()
	if !ok || m.state.Service == nil {
		return nil
	}
	link := youtrack.IssueURL(m.state.Service.HomeURL, issue.IDReadable)
	if err := clipboardWriteAll(link); err != nil {
		debug.Logf("ui: clipboard: %v", err)
		return m.showToast(err.Error())
	}
	return m.showToast(m.tr.T(i18n.MsgCopied, issue.IDReadable))
}

func (m *App) showToast(text string) tea.Cmd {
	m.toast = text
	m.toastUntil = timeNow().Add(copyToastTTL)
	return scheduleToastExpiry()
}

func (m *App) resizeViewport() {
	height := m.height - chromeHeight
	if height < minListHeight {
		height = minListHeight
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}
	m.updateViewportContent()
}
