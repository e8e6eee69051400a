// Package widget holds the issue-list widget's configuration access and its
// state machine. Update is a pure reducer: it never performs I/O and returns
// the effects the host must run.
package widget

import (
	"time"

	"ytissues/internal/youtrack"
)

// Persisted configuration field names.
const (
	FieldSearch        = "search"
	FieldContext       = "context"
	FieldTitle         = "title"
	FieldRefreshPeriod = "refreshPeriod"
	FieldYouTrack      = "youTrack"
)

// ConfigFields lists every persisted field.
var ConfigFields = []string{FieldSearch, FieldContext, FieldTitle, FieldRefreshPeriod, FieldYouTrack}

// DefaultRefreshPeriod is used when a config carries no refresh period, in seconds.
const DefaultRefreshPeriod = 240

// CountRetryInterval is how long to wait before asking again for a count
// the backend could not compute yet.
const CountRetryInterval = 60 * time.Second

// ServiceRef identifies the YouTrack service a widget talks to. Name and
// Version are absent on references read back from storage.
type ServiceRef struct {
	ID      string `json:"id"`
	HomeURL string `json:"homeUrl"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Persisted strips descriptive metadata before storing.
func (r ServiceRef) Persisted() ServiceRef {
	return ServiceRef{ID: r.ID, HomeURL: r.HomeURL}
}

// Config is the user configuration of one widget.
type Config struct {
	Search        string           `json:"search"`
	Context       *youtrack.Folder `json:"context"`
	Title         string           `json:"title"`
	RefreshPeriod int              `json:"refreshPeriod"`
	YouTrack      *ServiceRef      `json:"youTrack,omitempty"`
}

// Values returns the config as a field map for ConfigStore.Replace.
func (c Config) Values() map[string]any {
	values := map[string]any{
		FieldSearch:        c.Search,
		FieldContext:       c.Context,
		FieldTitle:         c.Title,
		FieldRefreshPeriod: c.RefreshPeriod,
	}
	if c.YouTrack != nil {
		values[FieldYouTrack] = c.YouTrack.Persisted()
	}
	return values
}

// Query is the (search, context) pair that identifies the current list.
type Query struct {
	Search  string
	Context *youtrack.Folder
}

// Matches reports whether two queries describe the same list: equal search
// text and equal context id (or both without context).
func (q Query) Matches(other Query) bool {
	return q.Search == other.Search && contextID(q.Context) == contextID(other.Context)
}

func contextID(f *youtrack.Folder) string {
	if f == nil {
		return ""
	}
	return f.ID
}

// Snapshot is a list of issues together with the query that produced it.
// It is persisted as the widget cache.
type Snapshot struct {
	Search    string           `json:"search"`
	Context   *youtrack.Folder `json:"context"`
	Issues    []youtrack.Issue `json:"issues"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// Query returns the snapshot's query fingerprint.
func (s Snapshot) Query() Query {
	return Query{Search: s.Search, Context: s.Context}
}

// CacheMatches reports whether a cached snapshot may be shown for the given
// search and context.
func CacheMatches(cache *Snapshot, search string, context *youtrack.Folder) bool {
	if cache == nil {
		return false
	}
	return cache.Query().Matches(Query{Search: search, Context: context})
}
