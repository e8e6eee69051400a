package youtrack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Field selection strings sent with every request. The backend only returns
// the attributes named here.
const (
	projectCustomFieldFields = "id,bundle(id),field(id,name,localizedName,fieldType(id,valueType))"
	issueFieldValueFields    = "id,name,localizedName,login,avatarUrl,name,presentation,minutes,color(id,foreground,background)"
	issueFieldFields         = "id,value(" + issueFieldValueFields + "),projectCustomField(" + projectCustomFieldFields + ")"

	IssueFields         = "id,idReadable,summary,resolved,fields(" + issueFieldFields + ")"
	QueryAssistFields   = "query,caret,styleRanges(start,length,style),suggestions(options,prefix,option,suffix,description,matchingStart,matchingEnd,caret,completionStart,completionEnd,group,icon)"
	PinnedFolderFields  = "id,$type,name,query,shortName"
	DateFormatFields    = "id,dateFieldFormat(pattern,datePattern)"
	searchPageCountPath = "api/searchPage"
	issuesGetterCount   = "api/issuesGetter/count"
)

// LoadIssues fetches one page of issues for query, scoped to folder when it
// has an id.
func LoadIssues(ctx context.Context, t Transport, query string, folder *Folder, skip int) ([]Issue, error) {
	if skip < 0 {
		skip = 0
	}
	path := "api/issues"
	if folder != nil && folder.ID != "" {
		path = "api/issueFolders/" + url.PathEscape(folder.ID) + "/sortOrder/issues"
	}
	params := url.Values{}
	params.Set("fields", IssueFields)
	params.Set("query", query)
	params.Set("$top", strconv.Itoa(PageSize))
	params.Set("$skip", strconv.Itoa(skip))

	var issues []Issue
	if err := t.Fetch(ctx, Request{Method: http.MethodGet, Path: path, Query: params}, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// Counter resolves the total number of issues matching a query. The two
// implementations cover the request shapes of different backend releases.
type Counter interface {
	Count(ctx context.Context, t Transport, sample *Issue, query string, folder *Folder) (Count, error)
}

// Counter names accepted by CounterFor.
const (
	CounterSearchPage   = "searchPage"
	CounterIssuesGetter = "issuesGetter"
)

// CounterFor returns the count contract registered under name.
func CounterFor(name string) (Counter, error) {
	switch strings.TrimSpace(name) {
	case "", CounterSearchPage:
		return SearchPageCounter{}, nil
	case CounterIssuesGetter:
		return IssuesGetterCounter{}, nil
	default:
		return nil, fmt.Errorf("unknown count api %q (want %s or %s)", name, CounterSearchPage, CounterIssuesGetter)
	}
}

type folderRef struct {
	ID   string `json:"id"`
	Type string `json:"$type,omitempty"`
}

func refOf(folder *Folder) *folderRef {
	if folder == nil || folder.ID == "" {
		return nil
	}
	return &folderRef{ID: folder.ID, Type: folder.Type}
}

type issueRef struct {
	ID string `json:"id"`
}

// SearchPageCounter posts a zero-sized search page and reads its total.
type SearchPageCounter struct{}

// Count implements Counter.
func (SearchPageCounter) Count(ctx context.Context, t Transport, sample *Issue, query string, folder *Folder) (Count, error) {
	body := struct {
		PageSize int        `json:"pageSize"`
		Folder   *folderRef `json:"folder"`
		Query    string     `json:"query"`
		Issue    *issueRef  `json:"issue,omitempty"`
	}{Folder: refOf(folder), Query: query}
	if sample != nil {
		body.Issue = &issueRef{ID: sample.ID}
	}
	params := url.Values{}
	params.Set("fields", "total")

	var resp struct {
		Total *int `json:"total"`
	}
	if err := t.Fetch(ctx, Request{Method: http.MethodPost, Path: searchPageCountPath, Query: params, Body: body}, &resp); err != nil {
		return Count{}, err
	}
	return countOf(resp.Total), nil
}

// IssuesGetterCounter posts the folder and query to the issue count endpoint.
type IssuesGetterCounter struct{}

// Count implements Counter.
func (IssuesGetterCounter) Count(ctx context.Context, t Transport, _ *Issue, query string, folder *Folder) (Count, error) {
	body := struct {
		Folder *folderRef `json:"folder"`
		Query  *string    `json:"query"`
	}{Folder: refOf(folder)}
	if query != "" {
		body.Query = &query
	}
	params := url.Values{}
	params.Set("fields", "count")

	var resp struct {
		Count *int `json:"count"`
	}
	if err := t.Fetch(ctx, Request{Method: http.MethodPost, Path: issuesGetterCount, Query: params, Body: body}, &resp); err != nil {
		return Count{}, err
	}
	return countOf(resp.Count), nil
}

func countOf(n *int) Count {
	if n == nil || *n < 0 {
		return UnknownCount()
	}
	return KnownCount(*n)
}

// LoadPinnedFolders lists the user's pinned projects, tags and saved
// searches; loadAll lifts the page limit.
func LoadPinnedFolders(ctx context.Context, t Transport, loadAll bool) ([]Folder, error) {
	top := PinnedFoldersPageSize
	if loadAll {
		top = -1
	}
	params := url.Values{}
	params.Set("fields", PinnedFolderFields)
	params.Set("$top", strconv.Itoa(top))

	var folders []Folder
	if err := t.Fetch(ctx, Request{Method: http.MethodGet, Path: "api/userIssueFolders", Query: params}, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// LoadDateFormats reads the user's date presentation settings and converts
// them to presentation tokens.
func LoadDateFormats(ctx context.Context, t Transport) (DateFormats, error) {
	params := url.Values{}
	params.Set("fields", DateFormatFields)

	var profile struct {
		DateFieldFormat *struct {
			Pattern     string `json:"pattern"`
			DatePattern string `json:"datePattern"`
		} `json:"dateFieldFormat"`
	}
	if err := t.Fetch(ctx, Request{Method: http.MethodGet, Path: "api/admin/users/me/profiles/general", Query: params}, &profile); err != nil {
		return DateFormats{}, err
	}

	formats := DefaultDateFormats()
	if profile.DateFieldFormat == nil {
		return formats, nil
	}
	if p := toPresentationPattern(profile.DateFieldFormat.DatePattern); p != "" {
		formats.DatePattern = p
	}
	if p := toPresentationPattern(profile.DateFieldFormat.Pattern); p != "" {
		formats.DateTimePattern = p
	}
	return formats, nil
}

// toPresentationPattern maps backend pattern letters to presentation tokens:
// every "yy" becomes "YY", every "dd" becomes "DD" and the first "aaa"
// becomes "A".
func toPresentationPattern(pattern string) string {
	p := strings.ReplaceAll(pattern, "yy", "YY")
	p = strings.ReplaceAll(p, "dd", "DD")
	return strings.Replace(p, "aaa", "A", 1)
}

// Suggest asks the backend to highlight and complete query at caret.
func Suggest(ctx context.Context, t Transport, query string, caret int, folder *Folder) (Assist, error) {
	params := url.Values{}
	params.Set("fields", QueryAssistFields)
	body := struct {
		Query  string     `json:"query"`
		Caret  int        `json:"caret"`
		Folder *folderRef `json:"folder"`
	}{Query: query, Caret: caret, Folder: refOf(folder)}

	var assist Assist
	if err := t.Fetch(ctx, Request{Method: http.MethodPost, Path: "api/search/assist", Query: params, Body: body}, &assist); err != nil {
		return Assist{}, err
	}
	return assist, nil
}
