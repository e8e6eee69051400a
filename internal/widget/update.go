package widget

import (
	"time"

	"ytissues/internal/debug"
	appErrors "ytissues/internal/errors"
	"ytissues/internal/youtrack"
)

// Update applies one event and returns the next state plus the effects the
// host must run. Asynchronous results are checked against the current load
// sequence, refresh chain and page offset; stale ones are dropped.
func Update(s State, ev Event) (State, []Effect) {
	u := &updater{s: s}
	switch e := ev.(type) {
	case Start:
		u.start()
	case ConfigChanged:
		if u.s.Phase == PhaseConfiguring {
			debug.Log("widget: config changed while configuring, ignored")
			break
		}
		u.start()
	case ConfigRead:
		u.configRead(e)
	case CacheRead:
		u.cacheRead(e)
	case ServiceResolved:
		u.serviceResolved(e)
	case ServiceUpgraded:
		u.serviceUpgraded(e)
	case IssuesLoaded:
		u.issuesLoaded(e)
	case NextPageLoaded:
		u.nextPageLoaded(e)
	case CountLoaded:
		u.countLoaded(e)
	case CountRetryDue:
		u.countRetryDue(e)
	case RefreshDue:
		u.refreshDue(e)
	case ConfigureRequested:
		u.configure()
	case RefreshRequested:
		if u.s.Service == nil || u.s.Phase == PhaseConfiguring || u.s.IsNew {
			break
		}
		u.startLoad()
	case LoadMoreRequested:
		u.loadMore()
	case ConfigSubmitted:
		u.submit(e)
	case ConfigCancelled:
		u.cancel()
	default:
		debug.Logf("widget: unhandled event %T", ev)
	}
	return u.s, u.effects
}

type updater struct {
	s       State
	effects []Effect
}

func (u *updater) emit(effects ...Effect) {
	u.effects = append(u.effects, effects...)
}

func (u *updater) setLoading(on bool) {
	u.s.Loading = on
	u.emit(SetLoading{On: on})
}

func (u *updater) start() {
	u.s.Phase = PhaseLoading
	u.s.Failure = ""
	u.setLoading(true)
	u.emit(ReadConfig{})
}

func (u *updater) configRead(e ConfigRead) {
	if e.Err != nil {
		debug.Logf("widget: read config failed: %v", e.Err)
		u.fail(failureCode(e.Err, appErrors.CodeStorage))
		return
	}
	u.s.IsNew = e.Config == nil
	cfg := Config{}
	if e.Config != nil {
		cfg = *e.Config
		if !u.s.Query().Matches(Query{Search: cfg.Search, Context: cfg.Context}) {
			u.resetResults()
		}
		u.s.Search = cfg.Search
		u.s.Context = cfg.Context
		u.s.Title = cfg.Title
		u.emit(ReadCache{})
	}

	period := cfg.RefreshPeriod
	if period <= 0 {
		period = u.s.DefaultRefreshPeriod
	}
	if !u.s.IsNew {
		u.startRefresh(period)
	} else {
		u.s.RefreshPeriod = period
	}

	if cfg.YouTrack != nil && cfg.YouTrack.ID != "" {
		ref := *cfg.YouTrack
		if up := u.s.Upgraded; up != nil && up.ID == ref.ID {
			if up.HomeURL != ref.HomeURL && !u.s.ReadOnly {
				u.emit(UpdateConfig{Values: map[string]any{FieldYouTrack: up.Persisted()}})
			}
			ref = *up
		}
		u.bindService(ref)
		return
	}
	u.emit(ResolveService{})
}

// resetResults drops everything that belongs to the previous query.
func (u *updater) resetResults() {
	u.s.Issues = nil
	u.s.FetchedAt = time.Time{}
	u.s.FromCache = false
	u.s.Count = CountState{}
	u.s.NextPageLoading = false
}

func (u *updater) cacheRead(e CacheRead) {
	if e.Snapshot == nil || u.s.IsNew {
		return
	}
	// A committed live result always wins over the cache.
	if u.s.Phase != PhaseLoading && u.s.Phase != PhaseLoadError {
		return
	}
	if !CacheMatches(e.Snapshot, u.s.Search, u.s.Context) {
		debug.Log("widget: cache does not match current query")
		return
	}
	u.s.Issues = e.Snapshot.Issues
	u.s.FetchedAt = e.Snapshot.FetchedAt
	u.s.FromCache = true
	if u.s.Phase == PhaseLoading {
		u.s.Phase = PhaseShowingCache
	}
}

func (u *updater) serviceResolved(e ServiceResolved) {
	if e.Err != nil || e.Service == nil || e.Service.ID == "" {
		debug.Logf("widget: no service: %v", e.Err)
		u.fail(appErrors.CodeServiceUnavailable)
		return
	}
	u.bindService(*e.Service)
}

// bindService makes ref the current service and continues initialization.
func (u *updater) bindService(ref ServiceRef) {
	u.s.Service = &ref
	if ref.Name == "" && !u.s.UpgradeRequested {
		u.s.UpgradeRequested = true
		u.emit(UpgradeService{ID: ref.ID})
	}

	if u.s.IsNew {
		if u.s.ReadOnly {
			u.fail(appErrors.CodeConfigurationError)
			return
		}
		u.s.Phase = PhaseConfiguring
		u.emit(EnterConfigMode{})
		u.setLoading(false)
		return
	}
	u.emitTitle()
	u.startLoad()
}

func (u *updater) serviceUpgraded(e ServiceUpgraded) {
	if e.Err != nil || e.Service == nil {
		debug.Logf("widget: service upgrade failed: %v", e.Err)
		return
	}
	cur := u.s.Service
	if cur == nil || cur.ID != e.Service.ID || e.Service.Name == "" {
		return
	}
	fresh := *e.Service
	u.s.Upgraded = &fresh
	if fresh.HomeURL == cur.HomeURL {
		u.s.Service = &fresh
		return
	}
	debug.Logf("widget: service %s moved to %s", fresh.ID, fresh.HomeURL)
	u.s.Service = &fresh
	if u.s.IsNew {
		return
	}
	u.emitTitle()
	u.startLoad()
	if u.s.Phase != PhaseConfiguring && !u.s.ReadOnly {
		u.emit(UpdateConfig{Values: map[string]any{FieldYouTrack: fresh.Persisted()}})
	}
}

func (u *updater) fail(code appErrors.Code) {
	u.s.Failure = code
	u.s.LoadError = true
	u.s.Phase = PhaseLoadError
	u.setLoading(false)
}

// startLoad supersedes any in-flight load and pending count retry.
func (u *updater) startLoad() {
	if u.s.Service == nil {
		return
	}
	u.s.LoadSeq++
	u.s.Count.RetryScheduled = false
	u.s.NextPageLoading = false
	u.emit(FetchIssues{Seq: u.s.LoadSeq, Service: *u.s.Service, Query: u.s.Query()})
}

func (u *updater) issuesLoaded(e IssuesLoaded) {
	if e.Seq != u.s.LoadSeq {
		debug.Logf("widget: dropping stale issues seq=%d current=%d", e.Seq, u.s.LoadSeq)
		return
	}
	if u.s.Loading {
		u.setLoading(false)
	}
	if e.Err != nil {
		debug.Logf("widget: load issues failed: %v", e.Err)
		u.s.Failure = failureCode(e.Err, appErrors.CodeTransport)
		u.s.LoadError = true
		if u.s.Phase != PhaseConfiguring {
			u.s.Phase = PhaseLoadError
		}
		return
	}

	u.s.Issues = e.Issues
	u.s.FetchedAt = e.FetchedAt
	u.s.FromCache = false
	u.s.LoadError = false
	u.s.Failure = ""
	if u.s.Phase != PhaseConfiguring {
		u.s.Phase = PhaseShowingLive
	}
	u.emit(StoreCache{Snapshot: Snapshot{
		Search:    u.s.Search,
		Context:   u.s.Context,
		Issues:    e.Issues,
		FetchedAt: e.FetchedAt,
	}})

	if len(e.Issues) == 0 {
		u.s.Count = CountState{Value: 0, Known: true}
		u.emitTitle()
		return
	}
	u.emit(FetchCount{Seq: u.s.LoadSeq, Service: *u.s.Service, Query: u.s.Query(), Sample: e.Issues[0]})
}

func (u *updater) countLoaded(e CountLoaded) {
	if e.Seq != u.s.LoadSeq {
		debug.Logf("widget: dropping stale count seq=%d current=%d", e.Seq, u.s.LoadSeq)
		return
	}
	if e.Err != nil {
		debug.Logf("widget: load count failed: %v", e.Err)
		return
	}
	if e.Count.Unknown {
		if u.s.Count.RetryScheduled {
			return
		}
		u.s.Count.RetryScheduled = true
		u.emit(ScheduleCountRetry{Seq: e.Seq, After: CountRetryInterval})
		return
	}
	u.s.Count = CountState{Value: e.Count.Value, Known: true}
	u.emitTitle()
}

func (u *updater) countRetryDue(e CountRetryDue) {
	if e.Seq != u.s.LoadSeq || !u.s.Count.RetryScheduled {
		debug.Logf("widget: dropping count retry seq=%d current=%d", e.Seq, u.s.LoadSeq)
		return
	}
	u.s.Count.RetryScheduled = false
	if len(u.s.Issues) == 0 || u.s.Service == nil {
		return
	}
	u.emit(FetchCount{Seq: u.s.LoadSeq, Service: *u.s.Service, Query: u.s.Query(), Sample: u.s.Issues[0]})
}

// startRefresh begins a new refresh chain; timers of older chains stop.
func (u *updater) startRefresh(period int) {
	u.s.RefreshPeriod = period
	u.s.RefreshChain++
	u.emit(ScheduleRefresh{Period: period, Chain: u.s.RefreshChain})
}

func (u *updater) refreshDue(e RefreshDue) {
	if e.Chain != u.s.RefreshChain || e.Period != u.s.RefreshPeriod || u.s.Phase == PhaseConfiguring {
		debug.Logf("widget: refresh chain %d stopped", e.Chain)
		return
	}
	u.startLoad()
	u.emit(ScheduleRefresh{Period: e.Period, Chain: e.Chain})
}

func (u *updater) configure() {
	if u.s.ReadOnly {
		return
	}
	u.s.Phase = PhaseConfiguring
	u.s.LoadError = false
	if u.s.Loading {
		u.setLoading(false)
	}
	u.emit(EnterConfigMode{})
}

func (u *updater) loadMore() {
	if u.s.NextPageLoading || u.s.Service == nil || u.s.LoadMoreCount() <= 0 {
		return
	}
	u.s.NextPageLoading = true
	u.emit(FetchNextPage{Seq: u.s.LoadSeq, Service: *u.s.Service, Query: u.s.Query(), Skip: len(u.s.Issues)})
}

func (u *updater) nextPageLoaded(e NextPageLoaded) {
	if e.Seq != u.s.LoadSeq {
		debug.Logf("widget: dropping stale page seq=%d current=%d", e.Seq, u.s.LoadSeq)
		return
	}
	u.s.NextPageLoading = false
	if e.Err != nil {
		debug.Logf("widget: load next page failed: %v", e.Err)
		return
	}
	if e.Skip != len(u.s.Issues) {
		debug.Logf("widget: dropping page at %d, list has %d", e.Skip, len(u.s.Issues))
		return
	}
	issues := make([]youtrack.Issue, 0, len(u.s.Issues)+len(e.Issues))
	issues = append(issues, u.s.Issues...)
	u.s.Issues = append(issues, e.Issues...)
}

func (u *updater) submit(e ConfigSubmitted) {
	if u.s.Phase != PhaseConfiguring {
		return
	}
	service := e.Service
	u.s.Service = &service
	u.s.Search = e.Search
	u.s.Context = e.Context
	u.s.Title = e.Title
	u.s.IsNew = false
	u.s.FromCache = false
	u.s.LoadError = false
	u.s.Count = CountState{}
	u.s.Issues = nil
	u.s.Phase = PhaseLoading

	period := e.RefreshPeriod
	if period <= 0 {
		period = u.s.DefaultRefreshPeriod
	}
	u.emit(ExitConfigMode{})
	u.startRefresh(period)
	u.emit(StoreConfig{Config: Config{
		Search:        e.Search,
		Context:       e.Context,
		Title:         e.Title,
		RefreshPeriod: e.RefreshPeriod,
		YouTrack:      &ServiceRef{ID: service.ID, HomeURL: service.HomeURL},
	}})
	u.emitTitle()
	u.setLoading(true)
	u.startLoad()
}

func (u *updater) cancel() {
	if u.s.Phase != PhaseConfiguring {
		return
	}
	if u.s.IsNew {
		u.emit(RemoveWidget{})
		return
	}
	u.emit(ExitConfigMode{})
	u.start()
}

// failureCode returns the code carried by err, or fallback for plain errors.
func failureCode(err error, fallback appErrors.Code) appErrors.Code {
	if code := appErrors.CodeOf(err); code != appErrors.CodeUnknown {
		return code
	}
	return fallback
}

func (u *updater) emitTitle() {
	u.emit(SetTitle{Text: u.s.DisplayTitle(), Href: u.s.TitleLink()})
}
