package youtrack

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appErrors "ytissues/internal/errors"

	"github.com/goccy/go-json"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   map[string]any
	auth   string
}

func newRecordingServer(t *testing.T, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: map[string]string{}, auth: r.Header.Get("Authorization")}
		for k, v := range r.URL.Query() {
			rec.query[k] = v[0]
		}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				if err := json.Unmarshal(data, &rec.body); err != nil {
					t.Errorf("decode body: %v", err)
				}
			}
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestLoadIssuesGlobal(t *testing.T) {
	server, calls := newRecordingServer(t, `[{"id":"2-1","idReadable":"YT-1","summary":"Crash on start"}]`)
	client := NewClient(server.URL+"/youtrack", WithToken("perm:abc"))

	issues, err := LoadIssues(context.Background(), client, "for: me #Unresolved", nil, 0)
	if err != nil {
		t.Fatalf("LoadIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].IDReadable != "YT-1" {
		t.Fatalf("unexpected issues: %+v", issues)
	}

	got := (*calls)[0]
	if got.path != "/youtrack/api/issues" {
		t.Fatalf("path = %q", got.path)
	}
	if got.query["query"] != "for: me #Unresolved" {
		t.Fatalf("query = %q", got.query["query"])
	}
	if got.query["fields"] != IssueFields {
		t.Fatalf("fields = %q", got.query["fields"])
	}
	if got.query["$top"] != "50" || got.query["$skip"] != "0" {
		t.Fatalf("paging = %q/%q", got.query["$top"], got.query["$skip"])
	}
	if got.auth != "Bearer perm:abc" {
		t.Fatalf("Authorization = %q", got.auth)
	}
}

func TestLoadIssuesInFolder(t *testing.T) {
	server, calls := newRecordingServer(t, `[]`)
	client := NewClient(server.URL)

	folder := &Folder{ID: "22-1", Type: "SavedQuery", Name: "Assigned to me"}
	issues, err := LoadIssues(context.Background(), client, "", folder, 50)
	if err != nil {
		t.Fatalf("LoadIssues: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected empty result, got %d", len(issues))
	}
	got := (*calls)[0]
	if got.path != "/api/issueFolders/22-1/sortOrder/issues" {
		t.Fatalf("path = %q", got.path)
	}
	if got.query["$skip"] != "50" {
		t.Fatalf("$skip = %q", got.query["$skip"])
	}
}

func TestLoadIssuesPropagatesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_request","error_description":"Unknown search keyword"}`))
	}))
	defer server.Close()

	_, err := LoadIssues(context.Background(), NewClient(server.URL), "foo:", nil, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if !appErrors.IsCode(err, appErrors.CodeTransport) {
		t.Fatalf("expected transport code, got %q", appErrors.CodeOf(err))
	}
	if msg := ErrorMessage(err, ""); msg != "Unknown search keyword" {
		t.Fatalf("ErrorMessage = %q", msg)
	}
}

func TestErrorMessageFallback(t *testing.T) {
	err := appErrors.New(appErrors.CodeTransport, "GET api/issues failed", io.ErrUnexpectedEOF)
	if msg := ErrorMessage(err, ""); msg != FallbackErrorMessage {
		t.Fatalf("ErrorMessage = %q", msg)
	}
	if msg := ErrorMessage(err, "custom"); msg != "custom" {
		t.Fatalf("ErrorMessage = %q", msg)
	}
}

func TestSearchPageCounter(t *testing.T) {
	server, calls := newRecordingServer(t, `{"total":3}`)
	folder := &Folder{ID: "0-1", Type: "Project", Name: "Demo"}

	count, err := SearchPageCounter{}.Count(context.Background(), NewClient(server.URL), &Issue{ID: "2-7"}, "#Bug", folder)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count.Unknown || count.Value != 3 {
		t.Fatalf("count = %+v", count)
	}
	got := (*calls)[0]
	if got.method != http.MethodPost || got.path != "/api/searchPage" || got.query["fields"] != "total" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.body["pageSize"] != float64(0) || got.body["query"] != "#Bug" {
		t.Fatalf("unexpected body %+v", got.body)
	}
	f, _ := got.body["folder"].(map[string]any)
	if f["id"] != "0-1" || f["$type"] != "Project" {
		t.Fatalf("unexpected folder %+v", got.body["folder"])
	}
	issue, _ := got.body["issue"].(map[string]any)
	if issue["id"] != "2-7" {
		t.Fatalf("unexpected issue ref %+v", got.body["issue"])
	}
}

func TestIssuesGetterCounter(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Count
	}{
		{name: "known", reply: `{"count":12}`, want: KnownCount(12)},
		{name: "not yet computed", reply: `{"count":-1}`, want: UnknownCount()},
		{name: "missing", reply: `{}`, want: UnknownCount()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newRecordingServer(t, tt.reply)
			got, err := IssuesGetterCounter{}.Count(context.Background(), NewClient(server.URL), nil, "", nil)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Count = %+v, want %+v", got, tt.want)
			}
			rec := (*calls)[0]
			if rec.path != "/api/issuesGetter/count" || rec.query["fields"] != "count" {
				t.Fatalf("unexpected request %+v", rec)
			}
			if v, ok := rec.body["folder"]; !ok || v != nil {
				t.Fatalf("expected explicit null folder, got %+v", rec.body)
			}
			if v, ok := rec.body["query"]; !ok || v != nil {
				t.Fatalf("expected explicit null query, got %+v", rec.body)
			}
		})
	}
}

func TestCounterFor(t *testing.T) {
	if c, err := CounterFor(""); err != nil || c != (SearchPageCounter{}) {
		t.Fatalf("CounterFor(\"\") = %v, %v", c, err)
	}
	if c, err := CounterFor("issuesGetter"); err != nil || c != (IssuesGetterCounter{}) {
		t.Fatalf("CounterFor(issuesGetter) = %v, %v", c, err)
	}
	if _, err := CounterFor("graphql"); err == nil {
		t.Fatal("expected error for unknown counter")
	}
}

func TestLoadPinnedFolders(t *testing.T) {
	server, calls := newRecordingServer(t, `[{"id":"0-1","$type":"Project","name":"Demo","shortName":"DEMO"},{"id":"6-2","$type":"Tag","name":"Star"}]`)
	client := NewClient(server.URL)

	folders, err := LoadPinnedFolders(context.Background(), client, false)
	if err != nil {
		t.Fatalf("LoadPinnedFolders: %v", err)
	}
	if len(folders) != 2 || folders[0].Kind() != KindProject || folders[1].Kind() != KindTag {
		t.Fatalf("unexpected folders %+v", folders)
	}
	if _, err := LoadPinnedFolders(context.Background(), client, true); err != nil {
		t.Fatalf("LoadPinnedFolders(all): %v", err)
	}
	if (*calls)[0].query["$top"] != "100" || (*calls)[1].query["$top"] != "-1" {
		t.Fatalf("unexpected page sizes %q %q", (*calls)[0].query["$top"], (*calls)[1].query["$top"])
	}
	if (*calls)[0].query["fields"] != PinnedFolderFields {
		t.Fatalf("fields = %q", (*calls)[0].query["fields"])
	}
}

func TestLoadDateFormats(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  DateFormats
	}{
		{
			name:  "converted",
			reply: `{"id":"general","dateFieldFormat":{"pattern":"dd MMM yyyy hh:mm aaa","datePattern":"dd.MM.yy"}}`,
			want:  DateFormats{DatePattern: "DD.MM.YY", DateTimePattern: "DD MMM YYYY hh:mm A"},
		},
		{
			name:  "unset",
			reply: `{"id":"general"}`,
			want:  DefaultDateFormats(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newRecordingServer(t, tt.reply)
			got, err := LoadDateFormats(context.Background(), NewClient(server.URL))
			if err != nil {
				t.Fatalf("LoadDateFormats: %v", err)
			}
			if got != tt.want {
				t.Fatalf("LoadDateFormats = %+v, want %+v", got, tt.want)
			}
			if (*calls)[0].path != "/api/admin/users/me/profiles/general" {
				t.Fatalf("path = %q", (*calls)[0].path)
			}
		})
	}
}

func TestToPresentationPatternReplacesFirstMeridiemOnly(t *testing.T) {
	if got := toPresentationPattern("aaa aaa"); got != "A aaa" {
		t.Fatalf("toPresentationPattern = %q", got)
	}
}

func TestSuggest(t *testing.T) {
	server, calls := newRecordingServer(t, `{"query":"for: m","caret":6,"suggestions":[{"option":"me","completionStart":5,"completionEnd":6,"caret":7}]}`)

	assist, err := Suggest(context.Background(), NewClient(server.URL), "for: m", 6, nil)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(assist.Suggestions) != 1 || assist.Suggestions[0].Option != "me" {
		t.Fatalf("unexpected assist %+v", assist)
	}
	rec := (*calls)[0]
	if rec.method != http.MethodPost || rec.path != "/api/search/assist" || rec.query["fields"] != QueryAssistFields {
		t.Fatalf("unexpected request %+v", rec)
	}
	if rec.body["query"] != "for: m" || rec.body["caret"] != float64(6) {
		t.Fatalf("unexpected body %+v", rec.body)
	}

	q, caret := assist.Suggestions[0].Apply("for: m")
	if q != "for: me" || caret != 7 {
		t.Fatalf("Apply = %q,%d", q, caret)
	}
}

func TestClientHomeURLNormalised(t *testing.T) {
	c := NewClient("https://example.com/youtrack///")
	if !strings.HasSuffix(c.HomeURL(), "/youtrack/") {
		t.Fatalf("HomeURL = %q", c.HomeURL())
	}
}
