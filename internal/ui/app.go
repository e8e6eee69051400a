// Package ui is the terminal host of the issue-list widget. It runs the
// widget reducer inside a Bubble Tea program, executes its effects as
// commands and renders the list, the empty and error states and the
// configuration form.
package ui

import (
	"context"
	"time"

	"ytissues/internal/debounce"
	"ytissues/internal/debug"
	"ytissues/internal/hub"
	"ytissues/internal/i18n"
	"ytissues/internal/storage"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	requestTimeout = 30 * time.Second
	storageTimeout = 5 * time.Second
	copyToastTTL   = 2 * time.Second
	minListHeight  = 3
)

// Directory finds YouTrack services.
type Directory interface {
	Resolve(ctx context.Context, configuredID, minVersion string) (*hub.Service, error)
	Lookup(ctx context.Context, id string) (*hub.Service, error)
	Eligible(ctx context.Context, minVersion string) ([]hub.Service, error)
}

// TransportFactory returns a transport bound to a YouTrack home URL.
type TransportFactory func(homeURL string) youtrack.Transport

// Config configures the widget host.
type Config struct {
	WidgetID             string
	Store                storage.Store
	Directory            Directory
	Transport            TransportFactory
	Counter              youtrack.Counter
	MinVersion           string
	ReadOnly             bool
	DefaultRefreshPeriod int
	Translator           *i18n.Translator
	OutputFormat         string
	Version              string
	Location             *time.Location
	SuggestDelay         time.Duration
}

// App implements the Bubble Tea model for one widget.
type App struct {
	cfg         Config
	configStore *widget.ConfigStore
	tr          *i18n.Translator

	state     widget.State
	title     string
	titleHref string
	loading   bool
	spinner   spinner.Model

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	keys     KeyMap
	showHelp bool

	cursor   int
	expanded map[string]bool

	formatsHome string
	formats     youtrack.DateFormats

	form      *configForm
	debouncer *debounce.Debouncer

	toast      string
	toastUntil time.Time

	removed bool
	changes <-chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the host for cfg.WidgetID.
func NewApp(cfg Config) *App {
	if cfg.Counter == nil {
		cfg.Counter = youtrack.SearchPageCounter{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	tr := cfg.Translator
	if tr == nil {
		tr = i18n.English()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleMuted

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:         cfg,
		configStore: widget.NewWidgetConfigStore(widget.StoreBackend{Store: cfg.Store, WidgetID: cfg.WidgetID}),
		tr:          tr,
		state: widget.NewState(widget.Options{
			ReadOnly:             cfg.ReadOnly,
			DefaultRefreshPeriod: cfg.DefaultRefreshPeriod,
			IssuesLabel:          tr.T(i18n.MsgIssues),
		}),
		spinner:   sp,
		keys:      DefaultKeyMap(),
		expanded:  make(map[string]bool),
		formats:   youtrack.DefaultDateFormats(),
		debouncer: debounce.New(cfg.SuggestDelay),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns the current widget state.
func (m *App) State() widget.State {
	return m.state
}

// Removed reports whether the widget was deleted before the program quit.
func (m *App) Removed() bool {
	return m.removed
}

func (m *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		func() tea.Msg { return widget.Start{} },
	}
	if cmd := m.watchConfig(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// dispatch feeds ev to the reducer and turns the resulting effects into
// commands.
func (m *App) dispatch(ev widget.Event) tea.Cmd {
	next, effects := widget.Update(m.state, ev)
	m.state = next
	m.clampCursor()
	m.updateViewportContent()
	return m.runEffects(effects)
}

func (m *App) shutdown() tea.Cmd {
	debug.Logf("ui: widget %s shutting down", m.cfg.WidgetID)
	m.cancel()
	m.debouncer.Stop()
	return tea.Quit
}
