package ui

import (
	"context"
	"time"

	"ytissues/internal/debug"
	"ytissues/internal/hub"
	"ytissues/internal/storage"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
)

// Host-only messages produced by effect commands.
type (
	dateFormatsMsg struct {
		homeURL string
		formats youtrack.DateFormats
		err     error
	}
	storeFailedMsg struct {
		op  string
		err error
	}
	widgetRemovedMsg struct{ err error }
	configChangedMsg struct{}
	toastExpiredMsg  struct{}
)

var timeNow = time.Now

func (m *App) runEffects(effects []widget.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		debug.Logf("ui: effect %T", eff)
		if cmd := m.runEffect(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (m *App) runEffect(eff widget.Effect) tea.Cmd {
	switch e := eff.(type) {
	case widget.SetLoading:
		m.loading = e.On
		if e.On {
			return m.spinner.Tick
		}
		return nil
	case widget.ReadConfig:
		return m.readConfigCmd()
	case widget.ReadCache:
		return m.readCacheCmd()
	case widget.ResolveService:
		return m.resolveServiceCmd()
	case widget.UpgradeService:
		return m.upgradeServiceCmd(e.ID)
	case widget.FetchIssues:
		return tea.Batch(m.fetchIssuesCmd(e), m.ensureDateFormats(e.Service.HomeURL))
	case widget.FetchNextPage:
		return m.fetchNextPageCmd(e)
	case widget.FetchCount:
		return m.fetchCountCmd(e)
	case widget.ScheduleCountRetry:
		seq := e.Seq
		return tea.Tick(e.After, func(time.Time) tea.Msg { return widget.CountRetryDue{Seq: seq} })
	case widget.ScheduleRefresh:
		period, chain := e.Period, e.Chain
		return tea.Tick(e.After(), func(time.Time) tea.Msg {
			return widget.RefreshDue{Period: period, Chain: chain}
		})
	case widget.StoreCache:
		return m.storeCacheCmd(e.Snapshot)
	case widget.StoreConfig:
		values := e.Config.Values()
		return m.configWriteCmd("store config", func(ctx context.Context) error {
			return m.configStore.Replace(ctx, values)
		})
	case widget.UpdateConfig:
		values := e.Values
		return m.configWriteCmd("update config", func(ctx context.Context) error {
			_, err := m.configStore.Update(ctx, values)
			return err
		})
	case widget.SetTitle:
		m.title = e.Text
		m.titleHref = e.Href
		return nil
	case widget.EnterConfigMode:
		m.form = newConfigForm(m.formDeps(), m.state)
		return m.form.Init()
	case widget.ExitConfigMode:
		if m.form != nil {
			m.form.close()
		}
		m.form = nil
		return nil
	case widget.RemoveWidget:
		return m.removeWidgetCmd()
	default:
		debug.Logf("ui: unhandled effect %T", eff)
		return nil
	}
}

func (m *App) readConfigCmd() tea.Cmd {
	store := m.configStore
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			return widget.ConfigRead{Err: err}
		}
		cfg, err := store.Config()
		return widget.ConfigRead{Config: cfg, Err: err}
	}
}

func (m *App) readCacheCmd() tea.Cmd {
	store, id := m.cfg.Store, m.cfg.WidgetID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		data, err := store.ReadCache(ctx, id)
		if err != nil {
			debug.Logf("ui: read cache: %v", err)
			return widget.CacheRead{}
		}
		if len(data) == 0 {
			return widget.CacheRead{}
		}
		var snap widget.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			debug.Logf("ui: decode cache: %v", err)
			return widget.CacheRead{}
		}
		return widget.CacheRead{Snapshot: &snap}
	}
}

func serviceRef(s *hub.Service) *widget.ServiceRef {
	if s == nil {
		return nil
	}
	return &widget.ServiceRef{ID: s.ID, HomeURL: s.HomeURL, Name: s.Name, Version: s.Version}
}

func (m *App) resolveServiceCmd() tea.Cmd {
	dir, minVersion := m.cfg.Directory, m.cfg.MinVersion
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		svc, err := dir.Resolve(ctx, "", minVersion)
		if err != nil {
			return widget.ServiceResolved{Err: err}
		}
		return widget.ServiceResolved{Service: serviceRef(svc)}
	}
}

func (m *App) upgradeServiceCmd(id string) tea.Cmd {
	dir := m.cfg.Directory
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		svc, err := dir.Lookup(ctx, id)
		if err != nil {
			return widget.ServiceUpgraded{Err: err}
		}
		return widget.ServiceUpgraded{Service: serviceRef(svc)}
	}
}

func (m *App) fetchIssuesCmd(e widget.FetchIssues) tea.Cmd {
	t := m.cfg.Transport(e.Service.HomeURL)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		issues, err := youtrack.LoadIssues(ctx, t, e.Query.Search, e.Query.Context, 0)
		return widget.IssuesLoaded{Seq: e.Seq, Issues: issues, FetchedAt: timeNow(), Err: err}
	}
}

func (m *App) fetchNextPageCmd(e widget.FetchNextPage) tea.Cmd {
	t := m.cfg.Transport(e.Service.HomeURL)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		issues, err := youtrack.LoadIssues(ctx, t, e.Query.Search, e.Query.Context, e.Skip)
		return widget.NextPageLoaded{Seq: e.Seq, Skip: e.Skip, Issues: issues, Err: err}
	}
}

func (m *App) fetchCountCmd(e widget.FetchCount) tea.Cmd {
	t := m.cfg.Transport(e.Service.HomeURL)
	counter := m.cfg.Counter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sample := e.Sample
		count, err := counter.Count(ctx, t, &sample, e.Query.Search, e.Query.Context)
		return widget.CountLoaded{Seq: e.Seq, Count: count, Err: err}
	}
}

// ensureDateFormats loads the service's date patterns once per home URL.
func (m *App) ensureDateFormats(homeURL string) tea.Cmd {
	if homeURL == "" || homeURL == m.formatsHome {
		return nil
	}
	m.formatsHome = homeURL
	t := m.cfg.Transport(homeURL)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		formats, err := youtrack.LoadDateFormats(ctx, t)
		return dateFormatsMsg{homeURL: homeURL, formats: formats, err: err}
	}
}

func (m *App) storeCacheCmd(snap widget.Snapshot) tea.Cmd {
	store, id := m.cfg.Store, m.cfg.WidgetID
	return func() tea.Msg {
		data, err := json.Marshal(snap)
		if err != nil {
			return storeFailedMsg{op: "encode cache", err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := store.StoreCache(ctx, id, data); err != nil {
			return storeFailedMsg{op: "store cache", err: err}
		}
		return nil
	}
}

func (m *App) configWriteCmd(op string, write func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		if err := write(ctx); err != nil {
			return storeFailedMsg{op: op, err: err}
		}
		return nil
	}
}

func (m *App) removeWidgetCmd() tea.Cmd {
	store, id := m.cfg.Store, m.cfg.WidgetID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
		defer cancel()
		return widgetRemovedMsg{err: store.Remove(ctx, id)}
	}
}

// watchConfig subscribes to external edits when the store supports it.
func (m *App) watchConfig() tea.Cmd {
	w, ok := m.cfg.Store.(storage.Watcher)
	if !ok {
		return nil
	}
	ch, err := w.WatchConfig(m.ctx, m.cfg.WidgetID)
	if err != nil {
		debug.Logf("ui: watch config: %v", err)
		return nil
	}
	m.changes = ch
	return waitForChange(ch)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

func scheduleToastExpiry() tea.Cmd {
	return tea.Tick(copyToastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{} })
}
