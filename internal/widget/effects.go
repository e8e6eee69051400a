package widget

import (
	"time"

	"ytissues/internal/youtrack"
)

// Effect is work the host performs on behalf of the reducer. Results come
// back as events.
type Effect interface {
	effect()
}

// SetLoading toggles the host loading indicator.
type SetLoading struct{ On bool }

// ReadConfig initializes the ConfigStore and reports ConfigRead.
type ReadConfig struct{}

// ReadCache reads the cached snapshot and reports CacheRead.
type ReadCache struct{}

// ResolveService picks a service from the directory and reports ServiceResolved.
type ResolveService struct{}

// UpgradeService re-reads the directory record for ID and reports ServiceUpgraded.
type UpgradeService struct{ ID string }

// FetchIssues loads the first page of Query and reports IssuesLoaded.
type FetchIssues struct {
	Seq     uint64
	Service ServiceRef
	Query   Query
}

// FetchNextPage loads the page at Skip and reports NextPageLoaded.
type FetchNextPage struct {
	Seq     uint64
	Service ServiceRef
	Query   Query
	Skip    int
}

// FetchCount resolves the total count and reports CountLoaded.
type FetchCount struct {
	Seq     uint64
	Service ServiceRef
	Query   Query
	Sample  youtrack.Issue
}

// ScheduleCountRetry reports CountRetryDue after After.
type ScheduleCountRetry struct {
	Seq   uint64
	After time.Duration
}

// ScheduleRefresh reports RefreshDue after Period seconds.
type ScheduleRefresh struct {
	Period int
	Chain  uint64
}

// After returns the timer delay.
func (s ScheduleRefresh) After() time.Duration {
	return time.Duration(s.Period) * time.Second
}

// StoreCache persists the snapshot as the widget cache.
type StoreCache struct{ Snapshot Snapshot }

// StoreConfig replaces the stored configuration.
type StoreConfig struct{ Config Config }

// UpdateConfig merges Values into the stored configuration.
type UpdateConfig struct{ Values map[string]any }

// SetTitle updates the host title bar.
type SetTitle struct {
	Text string
	Href string
}

// EnterConfigMode switches the host into configuration mode.
type EnterConfigMode struct{}

// ExitConfigMode leaves configuration mode.
type ExitConfigMode struct{}

// RemoveWidget deletes the widget from the host.
type RemoveWidget struct{}

func (SetLoading) effect()         {}
func (ReadConfig) effect()         {}
func (ReadCache) effect()          {}
func (ResolveService) effect()     {}
func (UpgradeService) effect()     {}
func (FetchIssues) effect()        {}
func (FetchNextPage) effect()      {}
func (FetchCount) effect()         {}
func (ScheduleCountRetry) effect() {}
func (ScheduleRefresh) effect()    {}
func (StoreCache) effect()         {}
func (StoreConfig) effect()        {}
func (UpdateConfig) effect()       {}
func (SetTitle) effect()           {}
func (EnterConfigMode) effect()    {}
func (ExitConfigMode) effect()     {}
func (RemoveWidget) effect()       {}
