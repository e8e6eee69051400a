package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ytissues/internal/debounce"
	"ytissues/internal/debug"
	"ytissues/internal/hub"
	"ytissues/internal/i18n"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
)

// RefreshChoices are the refresh periods offered in the form, in seconds.
var RefreshChoices = []int{60, 120, 240, 300, 600, 1800, 3600}

const maxSuggestions = 8

type formField int

const (
	fieldService formField = iota
	fieldSearch
	fieldContext
	fieldFilters
	fieldTitle
	fieldRefresh
	fieldSave
	fieldCancel
	fieldCount
)

// filterTabs are the folder kinds offered as quick filters.
var filterTabs = []youtrack.FolderKind{youtrack.KindProject, youtrack.KindTag, youtrack.KindSavedSearch}

type formDeps struct {
	directory     Directory
	transport     TransportFactory
	minVersion    string
	tr            *i18n.Translator
	keys          KeyMap
	debouncer     *debounce.Debouncer
	defaultPeriod int
}

func (m *App) formDeps() formDeps {
	return formDeps{
		directory:     m.cfg.Directory,
		transport:     m.cfg.Transport,
		minVersion:    m.cfg.MinVersion,
		tr:            m.tr,
		keys:          m.keys,
		debouncer:     m.debouncer,
		defaultPeriod: m.state.DefaultRefreshPeriod,
	}
}

// Form messages.
type (
	formBootstrapMsg struct {
		services []hub.Service
		homeURL  string
		folders  []youtrack.Folder
		err      error
	}
	formFoldersMsg struct {
		homeURL string
		folders []youtrack.Folder
		err     error
	}
	formSuggestMsg struct {
		query  string
		assist youtrack.Assist
		err    error
	}
	formValidatedMsg struct {
		event widget.ConfigSubmitted
		err   error
	}
)

// configForm edits a widget's configuration. Results leave the form as
// widget.ConfigSubmitted or widget.ConfigCancelled messages.
type configForm struct {
	deps formDeps

	focus formField
	title textinput.Model
	query textinput.Model
	help  help.Model

	services      []hub.Service
	serviceIdx    int
	servicesReady bool
	initialID     string

	folders       []youtrack.Folder
	foldersHome   string
	foldersFailed bool
	allFolders    bool
	context       *youtrack.Folder

	filterTab int
	filterIdx int

	refreshChoices []int
	refreshIdx     int

	suggestions   []youtrack.Suggestion
	suggestIdx    int
	noSuggestions bool

	validating bool
	err        string
	closed     bool
}

func newConfigForm(deps formDeps, s widget.State) *configForm {
	title := textinput.New()
	title.Placeholder = deps.tr.T(i18n.MsgDefaultTitleHint)
	title.SetValue(s.Title)
	title.CharLimit = 200

	query := textinput.New()
	query.Placeholder = "for: me #Unresolved"
	query.SetValue(s.Search)
	query.CharLimit = 1000

	f := &configForm{
		deps:       deps,
		focus:      fieldSearch,
		title:      title,
		query:      query,
		help:       help.New(),
		context:    s.Context,
		suggestIdx: -1,
	}
	if s.Service != nil {
		f.initialID = s.Service.ID
		f.services = []hub.Service{{ID: s.Service.ID, Name: s.Service.Name, HomeURL: s.Service.HomeURL, Version: s.Service.Version}}
	}

	period := s.RefreshPeriod
	if period <= 0 {
		period = deps.defaultPeriod
	}
	f.refreshChoices = append([]int(nil), RefreshChoices...)
	if !slices.Contains(f.refreshChoices, period) {
		f.refreshChoices = append(f.refreshChoices, period)
		slices.Sort(f.refreshChoices)
	}
	f.refreshIdx = slices.Index(f.refreshChoices, period)

	f.query.Focus()
	return f
}

// Init loads the eligible services and the pinned folders of the current
// service in parallel.
func (f *configForm) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, f.bootstrapCmd())
}

func (f *configForm) bootstrapCmd() tea.Cmd {
	deps := f.deps
	var homeURL string
	if svc := f.service(); svc != nil {
		homeURL = svc.HomeURL
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := formBootstrapMsg{homeURL: homeURL}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			services, err := deps.directory.Eligible(gctx, deps.minVersion)
			msg.services = services
			return err
		})
		if homeURL != "" {
			g.Go(func() error {
				folders, err := youtrack.LoadPinnedFolders(gctx, deps.transport(homeURL), false)
				msg.folders = folders
				return err
			})
		}
		msg.err = g.Wait()
		return msg
	}
}

func (f *configForm) loadFoldersCmd(loadAll bool) tea.Cmd {
	svc := f.service()
	if svc == nil {
		return nil
	}
	homeURL := svc.HomeURL
	t := f.deps.transport(homeURL)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		folders, err := youtrack.LoadPinnedFolders(ctx, t, loadAll)
		return formFoldersMsg{homeURL: homeURL, folders: folders, err: err}
	}
}

func (f *configForm) service() *hub.Service {
	if f.serviceIdx < 0 || f.serviceIdx >= len(f.services) {
		return nil
	}
	return &f.services[f.serviceIdx]
}

func (f *configForm) close() {
	f.closed = true
}

// Update handles form messages and key presses.
func (f *configForm) Update(msg tea.Msg) tea.Cmd {
	if f.closed {
		return nil
	}
	switch msg := msg.(type) {
	case formBootstrapMsg:
		return f.applyBootstrap(msg)
	case formFoldersMsg:
		if svc := f.service(); svc == nil || svc.HomeURL != msg.homeURL {
			return nil
		}
		if msg.err != nil {
			debug.Logf("form: load folders: %v", msg.err)
			f.err = youtrack.ErrorMessage(msg.err, f.deps.tr.T(i18n.MsgServiceUnavailable))
			f.foldersFailed = true
			return nil
		}
		if f.foldersFailed {
			f.err = ""
			f.foldersFailed = false
		}
		f.folders = msg.folders
		f.foldersHome = msg.homeURL
		f.clampFilter()
		return nil
	case formSuggestMsg:
		if msg.err != nil {
			debug.Logf("form: query assist: %v", msg.err)
			return nil
		}
		if msg.query != f.query.Value() || f.focus != fieldSearch {
			return nil
		}
		f.suggestions = msg.assist.Suggestions
		if len(f.suggestions) > maxSuggestions {
			f.suggestions = f.suggestions[:maxSuggestions]
		}
		f.suggestIdx = -1
		f.noSuggestions = len(f.suggestions) == 0 && strings.TrimSpace(msg.query) != ""
		return nil
	case formValidatedMsg:
		f.validating = false
		if msg.err != nil {
			f.err = youtrack.ErrorMessage(msg.err, f.deps.tr.T(i18n.MsgServiceUnavailable))
			return nil
		}
		event := msg.event
		return func() tea.Msg { return event }
	case tea.KeyMsg:
		return f.handleKey(msg)
	}
	return nil
}

func (f *configForm) applyBootstrap(msg formBootstrapMsg) tea.Cmd {
	f.servicesReady = true
	if msg.err != nil {
		debug.Logf("form: bootstrap: %v", msg.err)
		f.err = youtrack.ErrorMessage(msg.err, f.deps.tr.T(i18n.MsgServiceNotFound))
	}
	if msg.services != nil {
		f.services = msg.services
		f.serviceIdx = 0
		for i, s := range f.services {
			if s.ID == f.initialID {
				f.serviceIdx = i
				break
			}
		}
	}
	if len(f.services) == 0 {
		f.err = f.deps.tr.T(i18n.MsgServiceNotFound)
		return nil
	}
	svc := f.service()
	if msg.folders != nil && svc.HomeURL == msg.homeURL {
		f.folders = msg.folders
		f.foldersHome = msg.homeURL
		f.clampFilter()
		return nil
	}
	return f.loadFoldersCmd(false)
}

func (f *configForm) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := f.deps.keys
	switch {
	case key.Matches(msg, keys.Cancel):
		if len(f.suggestions) > 0 {
			f.suggestions = nil
			f.suggestIdx = -1
			return nil
		}
		return func() tea.Msg { return widget.ConfigCancelled{} }
	case key.Matches(msg, keys.Save):
		return f.submit()
	case key.Matches(msg, keys.NextField):
		f.setFocus((f.focus + 1) % fieldCount)
		return nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return nil
	}

	switch f.focus {
	case fieldService:
		switch {
		case key.Matches(msg, keys.Prev):
			return f.moveService(-1)
		case key.Matches(msg, keys.Next):
			return f.moveService(1)
		}
	case fieldSearch:
		return f.handleSearchKey(msg)
	case fieldContext:
		switch {
		case key.Matches(msg, keys.Prev):
			f.moveContext(-1)
		case key.Matches(msg, keys.Next):
			f.moveContext(1)
		}
	case fieldFilters:
		switch {
		case key.Matches(msg, keys.PrevTab):
			f.filterTab = (f.filterTab + len(filterTabs) - 1) % len(filterTabs)
			f.filterIdx = 0
		case key.Matches(msg, keys.NextTab):
			f.filterTab = (f.filterTab + 1) % len(filterTabs)
			f.filterIdx = 0
		case key.Matches(msg, keys.Prev):
			f.filterIdx--
			f.clampFilter()
		case key.Matches(msg, keys.Next):
			f.filterIdx++
			f.clampFilter()
		case key.Matches(msg, keys.AllItems):
			f.allFolders = true
			return f.loadFoldersCmd(true)
		case key.Matches(msg, keys.Apply):
			filters := f.availableFilters()
			if f.filterIdx < len(filters) {
				f.applyFilter(filters[f.filterIdx])
			}
		}
	case fieldTitle:
		if key.Matches(msg, keys.Apply) {
			return f.submit()
		}
		var cmd tea.Cmd
		f.title, cmd = f.title.Update(msg)
		return cmd
	case fieldRefresh:
		switch {
		case key.Matches(msg, keys.Prev):
			if f.refreshIdx > 0 {
				f.refreshIdx--
			}
		case key.Matches(msg, keys.Next):
			if f.refreshIdx < len(f.refreshChoices)-1 {
				f.refreshIdx++
			}
		}
	case fieldSave:
		if key.Matches(msg, keys.Apply) {
			return f.submit()
		}
	case fieldCancel:
		if key.Matches(msg, keys.Apply) {
			return func() tea.Msg { return widget.ConfigCancelled{} }
		}
	}
	return nil
}

func (f *configForm) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	if len(f.suggestions) > 0 {
		switch msg.String() {
		case "up":
			if f.suggestIdx > 0 {
				f.suggestIdx--
			}
			return nil
		case "down":
			if f.suggestIdx < len(f.suggestions)-1 {
				f.suggestIdx++
			}
			return nil
		}
	}
	if key.Matches(msg, f.deps.keys.Apply) {
		if f.suggestIdx >= 0 && f.suggestIdx < len(f.suggestions) {
			f.applySuggestion(f.suggestions[f.suggestIdx])
			return f.requestSuggestions()
		}
		return f.submit()
	}

	before := f.query.Value()
	var cmd tea.Cmd
	f.query, cmd = f.query.Update(msg)
	if f.query.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, f.requestSuggestions())
}

// requestSuggestions asks for query assist after the debounce delay; only
// the latest request in a burst reaches the backend.
func (f *configForm) requestSuggestions() tea.Cmd {
	svc := f.service()
	if svc == nil {
		return nil
	}
	query := f.query.Value()
	caret := f.query.Position()
	folder := f.context
	t := f.deps.transport(svc.HomeURL)
	return f.deps.debouncer.Decorate(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		assist, err := youtrack.Suggest(ctx, t, query, caret, folder)
		return formSuggestMsg{query: query, assist: assist, err: err}
	})
}

func (f *configForm) applySuggestion(s youtrack.Suggestion) {
	next, caret := s.Apply(f.query.Value())
	f.query.SetValue(next)
	f.query.SetCursor(caret)
	f.suggestions = nil
	f.suggestIdx = -1
}

func (f *configForm) setFocus(field formField) {
	f.focus = field
	f.noSuggestions = false
	f.suggestions = nil
	f.suggestIdx = -1
	f.query.Blur()
	f.title.Blur()
	switch field {
	case fieldSearch:
		f.query.Focus()
	case fieldTitle:
		f.title.Focus()
	}
}

func (f *configForm) moveService(delta int) tea.Cmd {
	if len(f.services) < 2 {
		return nil
	}
	f.serviceIdx = (f.serviceIdx + delta + len(f.services)) % len(f.services)
	f.folders = nil
	f.foldersHome = ""
	f.context = nil
	f.filterIdx = 0
	return f.loadFoldersCmd(f.allFolders)
}

// contextChoices is Everything (nil) followed by the pinned folders.
func (f *configForm) contextChoices() []*youtrack.Folder {
	choices := []*youtrack.Folder{nil}
	for i := range f.folders {
		choices = append(choices, &f.folders[i])
	}
	if f.context != nil && !slices.ContainsFunc(choices, func(c *youtrack.Folder) bool { return youtrack.SameFolder(c, f.context) }) {
		choices = append(choices, f.context)
	}
	return choices
}

func (f *configForm) moveContext(delta int) {
	choices := f.contextChoices()
	idx := slices.IndexFunc(choices, func(c *youtrack.Folder) bool { return youtrack.SameFolder(c, f.context) })
	if idx < 0 {
		idx = 0
	}
	idx = (idx + delta + len(choices)) % len(choices)
	f.context = choices[idx]
}

// availableFilters lists the folders of the current tab that are not yet
// part of the query.
func (f *configForm) availableFilters() []youtrack.Folder {
	kind := filterTabs[f.filterTab]
	search := f.query.Value()
	var out []youtrack.Folder
	for _, folder := range f.folders {
		if folder.Kind() != kind {
			continue
		}
		if youtrack.SameFolder(&folder, f.context) {
			continue
		}
		if q := filterQuery(folder); q != "" && strings.Contains(search, q) {
			continue
		}
		out = append(out, folder)
	}
	return out
}

// applyFilter makes folder the context of an empty query, otherwise it
// appends the folder's query to the search.
func (f *configForm) applyFilter(folder youtrack.Folder) {
	search := strings.TrimSpace(f.query.Value())
	if search == "" && f.context == nil {
		picked := folder
		f.context = &picked
	} else if q := filterQuery(folder); q != "" {
		if search == "" {
			search = q
		} else {
			search += " " + q
		}
		f.query.SetValue(search)
		f.query.CursorEnd()
	}
	f.clampFilter()
}

func filterQuery(folder youtrack.Folder) string {
	if folder.Query != "" {
		return folder.Query
	}
	switch folder.Kind() {
	case youtrack.KindProject:
		if folder.ShortName != "" {
			return "in: " + folder.ShortName
		}
	}
	if folder.Name == "" {
		return ""
	}
	return "#{" + folder.Name + "}"
}

func (f *configForm) clampFilter() {
	n := len(f.availableFilters())
	if f.filterIdx >= n {
		f.filterIdx = n - 1
	}
	if f.filterIdx < 0 {
		f.filterIdx = 0
	}
}

func (f *configForm) refreshPeriod() int {
	if f.refreshIdx < 0 || f.refreshIdx >= len(f.refreshChoices) {
		return f.deps.defaultPeriod
	}
	return f.refreshChoices[f.refreshIdx]
}

// submit validates the query by loading its first page; the form stays
// open with the backend message when that fails.
func (f *configForm) submit() tea.Cmd {
	if f.validating {
		return nil
	}
	svc := f.service()
	if svc == nil {
		f.err = f.deps.tr.T(i18n.MsgServiceNotFound)
		return nil
	}
	event := widget.ConfigSubmitted{
		Search:        strings.TrimSpace(f.query.Value()),
		Context:       f.context,
		Title:         strings.TrimSpace(f.title.Value()),
		RefreshPeriod: f.refreshPeriod(),
		Service:       widget.ServiceRef{ID: svc.ID, HomeURL: svc.HomeURL, Name: svc.Name, Version: svc.Version},
	}
	f.validating = true
	f.err = ""
	t := f.deps.transport(svc.HomeURL)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := youtrack.LoadIssues(ctx, t, event.Search, event.Context, 0)
		return formValidatedMsg{event: event, err: err}
	}
}

// formHelpKeys adapts the key map to the bubbles help view.
type formHelpKeys struct{ keys KeyMap }

func (h formHelpKeys) ShortHelp() []key.Binding {
	return []key.Binding{h.keys.NextField, h.keys.Prev, h.keys.Apply, h.keys.Save, h.keys.Cancel}
}

func (h formHelpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.keys.NextField, h.keys.PrevField},
		{h.keys.Prev, h.keys.PrevTab, h.keys.AllItems},
		{h.keys.Apply, h.keys.Save, h.keys.Cancel},
	}
}

// View renders the form.
func (f *configForm) View(width int) string {
	tr := f.deps.tr
	var rows []string

	rows = append(rows, f.row(fieldService, tr.T(i18n.MsgService), f.serviceLabel()))
	rows = append(rows, f.row(fieldSearch, tr.T(i18n.MsgSearch), f.query.View()))
	switch {
	case f.focus != fieldSearch:
	case len(f.suggestions) > 0:
		rows = append(rows, f.suggestionsView())
	case f.noSuggestions:
		rows = append(rows, lipgloss.NewStyle().MarginLeft(lipgloss.Width(styleFormLabel.Render(""))).Render(styleFormHint.Render(tr.T(i18n.MsgNoSuggestions))))
	}
	rows = append(rows, f.row(fieldContext, tr.T(i18n.MsgContext), chooser(folderLabel(f.context, tr))))
	rows = append(rows, f.row(fieldFilters, f.filterTabsLabel(), f.filtersView(width)))
	rows = append(rows, f.row(fieldTitle, tr.T(i18n.MsgTitle), f.title.View()))
	rows = append(rows, f.row(fieldRefresh, tr.T(i18n.MsgRefreshPeriod), chooser(refreshLabel(f.refreshPeriod(), tr))))
	rows = append(rows, "")
	rows = append(rows, f.buttons())

	switch {
	case f.validating:
		rows = append(rows, "", styleMuted.Render(tr.T(i18n.MsgValidating)))
	case f.err != "":
		rows = append(rows, "", styleError.Width(width).Render(f.err))
	}

	f.help.Width = width
	rows = append(rows, "", f.help.View(formHelpKeys{keys: f.deps.keys}))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f *configForm) row(field formField, label, value string) string {
	style := styleFormLabel
	if f.focus == field {
		style = styleFormLabelFocused
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), value)
}

func chooser(label string) string {
	return styleFormOption.Render("‹ ") + styleFormOptionSelected.Render(label) + styleFormOption.Render(" ›")
}

func (f *configForm) serviceLabel() string {
	svc := f.service()
	if svc == nil {
		if !f.servicesReady {
			return styleMuted.Render("…")
		}
		return styleError.Render(f.deps.tr.T(i18n.MsgServiceNotFound))
	}
	name := svc.Name
	if name == "" {
		name = svc.ID
	}
	label := fmt.Sprintf("%s (%s)", name, svc.HomeURL)
	if len(f.services) > 1 {
		return chooser(label)
	}
	return styleFormOptionSelected.Render(label)
}

func folderLabel(folder *youtrack.Folder, tr *i18n.Translator) string {
	if folder == nil {
		return tr.T(i18n.MsgEverything)
	}
	if folder.Name != "" {
		return folder.Name
	}
	return folder.ID
}

func refreshLabel(seconds int, tr *i18n.Translator) string {
	if seconds%60 == 0 {
		return tr.T(i18n.MsgEveryMinutes, seconds/60)
	}
	return tr.T(i18n.MsgEverySeconds, seconds)
}

func (f *configForm) filterTabsLabel() string {
	tr := f.deps.tr
	names := map[youtrack.FolderKind]string{
		youtrack.KindProject:     tr.T(i18n.MsgProjects),
		youtrack.KindTag:         tr.T(i18n.MsgTags),
		youtrack.KindSavedSearch: tr.T(i18n.MsgSavedSearches),
	}
	return names[filterTabs[f.filterTab]]
}

func (f *configForm) filtersView(width int) string {
	filters := f.availableFilters()
	if len(filters) == 0 {
		return styleFormHint.Render("-")
	}
	parts := make([]string, 0, len(filters))
	for i, folder := range filters {
		style := styleFormOption
		if f.focus == fieldFilters && i == f.filterIdx {
			style = styleFormOptionSelected
		}
		parts = append(parts, style.Render(folderLabel(&folder, f.deps.tr)))
	}
	avail := width - lipgloss.Width(styleFormLabel.Render(""))
	if avail < 10 {
		avail = 10
	}
	return lipgloss.NewStyle().Width(avail).Render(strings.Join(parts, "  "))
}

func (f *configForm) suggestionsView() string {
	lines := make([]string, 0, len(f.suggestions))
	for i, s := range f.suggestions {
		text := s.Option
		if s.Description != "" {
			text += "  " + styleFormHint.Render(s.Description)
		}
		if i == f.suggestIdx {
			lines = append(lines, styleSuggestionSelected.Render(text))
			continue
		}
		lines = append(lines, styleSuggestion.Render(text))
	}
	return lipgloss.NewStyle().MarginLeft(lipgloss.Width(styleFormLabel.Render(""))).Render(strings.Join(lines, "\n"))
}

func (f *configForm) buttons() string {
	tr := f.deps.tr
	save, cancel := styleFormButton, styleFormButton
	if f.focus == fieldSave {
		save = styleFormButtonFocused
	}
	if f.focus == fieldCancel {
		cancel = styleFormButtonFocused
	}
	return save.Render(tr.T(i18n.MsgSave)) + "  " + cancel.Render(tr.T(i18n.MsgCancel))
}
