package widget

import (
	"time"

	"ytissues/internal/youtrack"
)

// Event is an input to Update: a user action, a timer firing or the result
// of an effect.
type Event interface {
	event()
}

// Start begins (or restarts) initialization.
type Start struct{}

// ConfigRead carries the stored configuration; Config is nil for a new widget.
type ConfigRead struct {
	Config *Config
	Err    error
}

// CacheRead carries the cached snapshot, nil when none was stored.
type CacheRead struct {
	Snapshot *Snapshot
}

// ServiceResolved carries the result of service resolution.
type ServiceResolved struct {
	Service *ServiceRef
	Err     error
}

// ServiceUpgraded carries the refreshed directory record for the bound service.
type ServiceUpgraded struct {
	Service *ServiceRef
	Err     error
}

// IssuesLoaded carries the first page for the load tagged Seq.
type IssuesLoaded struct {
	Seq       uint64
	Issues    []youtrack.Issue
	FetchedAt time.Time
	Err       error
}

// NextPageLoaded carries an additional page fetched at offset Skip.
type NextPageLoaded struct {
	Seq    uint64
	Skip   int
	Issues []youtrack.Issue
	Err    error
}

// CountLoaded carries the total count for the load tagged Seq.
type CountLoaded struct {
	Seq   uint64
	Count youtrack.Count
	Err   error
}

// CountRetryDue fires when a scheduled count retry is due.
type CountRetryDue struct {
	Seq uint64
}

// RefreshDue fires when a refresh timer of the given chain elapses.
type RefreshDue struct {
	Period int
	Chain  uint64
}

// ConfigureRequested asks to open the configuration form.
type ConfigureRequested struct{}

// RefreshRequested asks to reload the list now.
type RefreshRequested struct{}

// LoadMoreRequested asks for the next page.
type LoadMoreRequested struct{}

// ConfigSubmitted carries a validated configuration from the form.
type ConfigSubmitted struct {
	Search        string
	Context       *youtrack.Folder
	Title         string
	RefreshPeriod int
	Service       ServiceRef
}

// ConfigCancelled closes the form without saving.
type ConfigCancelled struct{}

// ConfigChanged reports that the stored configuration was edited externally.
type ConfigChanged struct{}

func (Start) event()              {}
func (ConfigRead) event()         {}
func (CacheRead) event()          {}
func (ServiceResolved) event()    {}
func (ServiceUpgraded) event()    {}
func (IssuesLoaded) event()       {}
func (NextPageLoaded) event()     {}
func (CountLoaded) event()        {}
func (CountRetryDue) event()      {}
func (RefreshDue) event()         {}
func (ConfigureRequested) event() {}
func (RefreshRequested) event()   {}
func (LoadMoreRequested) event()  {}
func (ConfigSubmitted) event()    {}
func (ConfigCancelled) event()    {}
func (ConfigChanged) event()      {}
