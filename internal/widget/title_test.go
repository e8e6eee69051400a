package widget

import (
	"testing"

	"ytissues/internal/youtrack"
)

func TestSuperscript(t *testing.T) {
	tests := map[int]string{0: "⁰", 3: "³", 42: "⁴²", 1234567890: "¹²³⁴⁵⁶⁷⁸⁹⁰"}
	for n, want := range tests {
		if got := Superscript(n); got != want {
			t.Errorf("Superscript(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFullSearchPresentation(t *testing.T) {
	project := &youtrack.Folder{ID: "0-1", Type: "Project", Name: "Demo"}
	tests := []struct {
		name    string
		context *youtrack.Folder
		search  string
		want    string
	}{
		{name: "context and search", context: project, search: "#Bug", want: "#{Demo} #Bug"},
		{name: "context only", context: project, want: "#{Demo}"},
		{name: "search only", search: "for: me", want: "for: me"},
		{name: "nothing", want: "#Issues"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FullSearchPresentation(tt.context, tt.search, "Issues"); got != tt.want {
				t.Fatalf("FullSearchPresentation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle("", nil, "for: me", 3, "Issues"); got != "for: me ³" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := DisplayTitle("Mine", nil, "for: me", 0, "Issues"); got != "Mine" {
		t.Fatalf("DisplayTitle = %q", got)
	}
}

func TestIssueListLink(t *testing.T) {
	tests := []struct {
		name    string
		context *youtrack.Folder
		search  string
		want    string
	}{
		{name: "no context", want: "https://yt.example.com/issues"},
		{name: "search", search: "for: me #Unresolved", want: "https://yt.example.com/issues?q=for%3A%20me%20%23Unresolved"},
		{name: "search with parentheses", search: "(#Bug or #Task) -Fixed!*'", want: "https://yt.example.com/issues?q=(%23Bug%20or%20%23Task)%20-Fixed!*'"},
		{name: "search with plus and percent", search: "a+b 50%", want: "https://yt.example.com/issues?q=a%2Bb%2050%25"},
		{name: "project", context: &youtrack.Folder{ID: "0-1", Type: "Project", Name: "Demo", ShortName: "DEMO"}, want: "https://yt.example.com/issues/demo"},
		{name: "tag", context: &youtrack.Folder{ID: "6-12", Type: "Tag", Name: "Star"}, want: "https://yt.example.com/tag/star-12"},
		{name: "saved search", context: &youtrack.Folder{ID: "22-7", Type: "SavedQuery", Name: "Assigned"}, search: "#Bug", want: "https://yt.example.com/search/assigned-7?q=%23Bug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IssueListLink("https://yt.example.com/", tt.context, tt.search); got != tt.want {
				t.Fatalf("IssueListLink = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheMatches(t *testing.T) {
	ctxA := &youtrack.Folder{ID: "0-1"}
	ctxB := &youtrack.Folder{ID: "0-2"}
	cache := &Snapshot{Search: "for: me", Context: ctxA}

	tests := []struct {
		name    string
		cache   *Snapshot
		search  string
		context *youtrack.Folder
		want    bool
	}{
		{name: "match", cache: cache, search: "for: me", context: &youtrack.Folder{ID: "0-1", Name: "renamed"}, want: true},
		{name: "search differs", cache: cache, search: "for: you", context: ctxA},
		{name: "context differs", cache: cache, search: "for: me", context: ctxB},
		{name: "context missing", cache: cache, search: "for: me"},
		{name: "both without context", cache: &Snapshot{Search: "x"}, search: "x", want: true},
		{name: "no cache", search: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CacheMatches(tt.cache, tt.search, tt.context); got != tt.want {
				t.Fatalf("CacheMatches = %v, want %v", got, tt.want)
			}
		})
	}
}
