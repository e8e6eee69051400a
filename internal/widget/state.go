package widget

import (
	"time"

	appErrors "ytissues/internal/errors"
	"ytissues/internal/youtrack"
)

// Phase is the controller's top-level state.
type Phase int

const (
	// PhaseLoading waits for configuration, service or the first page.
	PhaseLoading Phase = iota
	// PhaseShowingCache displays a cached snapshot while the live load runs.
	PhaseShowingCache
	// PhaseConfiguring shows the configuration form; refresh is paused.
	PhaseConfiguring
	// PhaseShowingLive displays freshly loaded issues.
	PhaseShowingLive
	// PhaseLoadError means the service or the live load failed.
	PhaseLoadError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseShowingCache:
		return "showing-cache"
	case PhaseConfiguring:
		return "configuring"
	case PhaseShowingLive:
		return "showing-live"
	case PhaseLoadError:
		return "load-error"
	default:
		return "unknown"
	}
}

// CountState is the background total count of the current query.
type CountState struct {
	Value          int
	Known          bool
	RetryScheduled bool
}

// Options are fixed for the lifetime of a widget.
type Options struct {
	ReadOnly             bool
	DefaultRefreshPeriod int
	IssuesLabel          string
}

// State is the whole widget state. It is only changed by Update.
type State struct {
	Phase     Phase
	ReadOnly  bool
	IsNew     bool
	Loading   bool
	FromCache bool
	LoadError bool
	// Failure classifies the last failure that put the widget in
	// PhaseLoadError.
	Failure appErrors.Code

	Search  string
	Context *youtrack.Folder
	Title   string

	RefreshPeriod int
	RefreshChain  uint64

	Service          *ServiceRef
	UpgradeRequested bool
	// Upgraded is the latest directory answer for the bound service. It
	// outlives re-initialization so an unpersisted move is not reverted.
	Upgraded *ServiceRef

	Issues          []youtrack.Issue
	FetchedAt       time.Time
	Count           CountState
	LoadSeq         uint64
	NextPageLoading bool

	DefaultRefreshPeriod int
	IssuesLabel          string
}

// NewState returns the state of a widget that has not started.
func NewState(opts Options) State {
	period := opts.DefaultRefreshPeriod
	if period <= 0 {
		period = DefaultRefreshPeriod
	}
	label := opts.IssuesLabel
	if label == "" {
		label = "Issues"
	}
	return State{
		Phase:                PhaseLoading,
		ReadOnly:             opts.ReadOnly,
		DefaultRefreshPeriod: period,
		IssuesLabel:          label,
	}
}

// Query returns the current query.
func (s State) Query() Query {
	return Query{Search: s.Search, Context: s.Context}
}

// LoadMoreCount is how many issues beyond the loaded ones the count reports.
func (s State) LoadMoreCount() int {
	if !s.Count.Known || len(s.Issues) == 0 || s.Count.Value <= len(s.Issues) {
		return 0
	}
	return s.Count.Value - len(s.Issues)
}

// DisplayTitle returns the title text including the count suffix.
func (s State) DisplayTitle() string {
	count := 0
	if s.Count.Known {
		count = s.Count.Value
	}
	return DisplayTitle(s.Title, s.Context, s.Search, count, s.IssuesLabel)
}

// TitleLink returns the link behind the title.
func (s State) TitleLink() string {
	home := ""
	if s.Service != nil {
		home = s.Service.HomeURL
	}
	return IssueListLink(home, s.Context, s.Search)
}

// View is what the widget body shows.
type View int

const (
	ViewLoader View = iota
	ViewError
	ViewConfiguring
	ViewEmpty
	ViewList
)

// View classifies the body. A cached list wins over the error and loader
// views.
func (s State) View() View {
	switch {
	case s.Phase == PhaseLoadError && !s.FromCache:
		return ViewError
	case s.Phase == PhaseConfiguring:
		return ViewConfiguring
	case s.Phase == PhaseLoading && !s.FromCache:
		return ViewLoader
	case len(s.Issues) == 0:
		return ViewEmpty
	default:
		return ViewList
	}
}
