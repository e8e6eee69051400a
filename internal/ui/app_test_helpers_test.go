package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"ytissues/internal/hub"
	"ytissues/internal/widget"
	"ytissues/internal/youtrack"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

const testWidgetID = "w-1"

var (
	testService = widget.ServiceRef{ID: "yt-1", HomeURL: "https://yt.example.com", Name: "Main", Version: "2023.2"}
	testFetched = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
)

func stripANSI(s string) string {
	return ansi.Strip(s)
}

// memoryStore is an in-memory storage.Store.
type memoryStore struct {
	mu      sync.Mutex
	configs map[string]json.RawMessage
	caches  map[string]json.RawMessage
	removed []string
	failing error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		configs: make(map[string]json.RawMessage),
		caches:  make(map[string]json.RawMessage),
	}
}

func (s *memoryStore) ReadConfig(_ context.Context, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs[id], nil
}

func (s *memoryStore) StoreConfig(_ context.Context, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	s.configs[id] = data
	return nil
}

func (s *memoryStore) ReadCache(_ context.Context, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caches[id], nil
}

func (s *memoryStore) StoreCache(_ context.Context, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing != nil {
		return s.failing
	}
	s.caches[id] = data
	return nil
}

func (s *memoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, id)
	delete(s.caches, id)
	s.removed = append(s.removed, id)
	return nil
}

func (s *memoryStore) Close() error { return nil }

// fakeDirectory serves a fixed service list.
type fakeDirectory struct {
	services []hub.Service
	err      error
}

func (d *fakeDirectory) Resolve(_ context.Context, configuredID, _ string) (*hub.Service, error) {
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.services {
		if configuredID == "" || d.services[i].ID == configuredID {
			return &d.services[i], nil
		}
	}
	return nil, errors.New("no services")
}

func (d *fakeDirectory) Lookup(_ context.Context, id string) (*hub.Service, error) {
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.services {
		if d.services[i].ID == id {
			return &d.services[i], nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) Eligible(_ context.Context, _ string) ([]hub.Service, error) {
	return d.services, d.err
}

// fakeBackend answers YouTrack requests from canned values.
type fakeBackend struct {
	mu       sync.Mutex
	issues   []youtrack.Issue
	folders  []youtrack.Folder
	assist   youtrack.Assist
	total    int
	err      error
	requests []youtrack.Request
	homes    []string
}

func (b *fakeBackend) transport(homeURL string) youtrack.Transport {
	return youtrack.TransportFunc(func(_ context.Context, req youtrack.Request, out any) error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.requests = append(b.requests, req)
		b.homes = append(b.homes, homeURL)
		if b.err != nil {
			return b.err
		}
		var payload any
		switch {
		case req.Path == "api/issues" || strings.HasPrefix(req.Path, "api/issueFolders/"):
			payload = b.issues
		case req.Path == "api/userIssueFolders":
			payload = b.folders
		case req.Path == "api/search/assist":
			payload = b.assist
		case req.Path == "api/searchPage":
			payload = map[string]int{"total": b.total}
		case req.Path == "api/admin/users/me/profiles/general":
			payload = map[string]any{}
		default:
			return fmt.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	})
}

func (b *fakeBackend) lastRequest(t *testing.T) youtrack.Request {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("expected a request")
	}
	return b.requests[len(b.requests)-1]
}

type testEnv struct {
	app     *App
	store   *memoryStore
	backend *fakeBackend
	dir     *fakeDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   newMemoryStore(),
		backend: &fakeBackend{},
		dir: &fakeDirectory{services: []hub.Service{
			{ID: testService.ID, Name: testService.Name, HomeURL: testService.HomeURL, Version: testService.Version},
			{ID: "yt-2", Name: "Side", HomeURL: "https://side.example.com", Version: "2024.1"},
		}},
	}
	env.app = NewApp(Config{
		WidgetID:     testWidgetID,
		Store:        env.store,
		Directory:    env.dir,
		Transport:    env.backend.transport,
		OutputFormat: "plain",
		Location:     time.UTC,
		SuggestDelay: time.Millisecond,
	})
	env.app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(func() {
		env.app.cancel()
		env.app.debouncer.Stop()
	})
	return env
}

// send feeds msg to the app and drops the resulting command.
func (e *testEnv) send(msgs ...tea.Msg) {
	for _, msg := range msgs {
		e.app.Update(msg)
	}
}

// showList drives a configured widget to a loaded list.
func (e *testEnv) showList(issues []youtrack.Issue) {
	svc := testService
	e.send(
		widget.Start{},
		widget.ConfigRead{Config: &widget.Config{Search: "for: me", RefreshPeriod: 120, YouTrack: &svc}},
		widget.IssuesLoaded{Seq: 1, Issues: issues, FetchedAt: testFetched},
	)
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testIssues(n int) []youtrack.Issue {
	issues := make([]youtrack.Issue, n)
	for i := range issues {
		issues[i] = youtrack.Issue{
			ID:         fmt.Sprintf("2-%d", i+1),
			IDReadable: fmt.Sprintf("YT-%d", i+1),
			Summary:    fmt.Sprintf("Issue number %d", i+1),
		}
	}
	return issues
}

func stubNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}
