package hub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appErrors "ytissues/internal/errors"
	"ytissues/internal/youtrack"
)

type fakeLister struct {
	services []Service
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeLister) ListServices(ctx context.Context) ([]Service, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.services, f.err
}

var directory = []Service{
	{ID: "no-url", Name: "Detached", ApplicationName: "YouTrack", Version: "2023.1"},
	{ID: "old", Name: "Legacy", ApplicationName: "YouTrack", HomeURL: "https://old.example.com", Version: "2017.3.1"},
	{ID: "main", Name: "Main", ApplicationName: "YouTrack", HomeURL: "https://yt.example.com", Version: "2023.2.1"},
	{ID: "side", Name: "Side", ApplicationName: "YouTrack", HomeURL: "https://side.example.com", Version: "2022.1"},
}

func TestEligibleFiltersURLAndVersion(t *testing.T) {
	r := NewResolver(&fakeLister{services: directory})

	got, err := r.Eligible(context.Background(), "2017.4.38723")
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(got) != 2 || got[0].ID != "main" || got[1].ID != "side" {
		t.Fatalf("unexpected eligible services %+v", got)
	}

	all, err := r.Eligible(context.Background(), "")
	if err != nil {
		t.Fatalf("Eligible: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 services with a home URL, got %d", len(all))
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		minVersion string
		wantID     string
	}{
		{name: "configured match", configured: "side", minVersion: "2017.4.38723", wantID: "side"},
		{name: "no configuration", minVersion: "2017.4.38723", wantID: "main"},
		{name: "configured ineligible falls back", configured: "old", minVersion: "2017.4.38723", wantID: "main"},
		{name: "configured without version filter", configured: "old", wantID: "old"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeLister{services: directory})
			got, err := r.Resolve(context.Background(), tt.configured, tt.minVersion)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.ID != tt.wantID {
				t.Fatalf("Resolve = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestResolveNoneEligible(t *testing.T) {
	r := NewResolver(&fakeLister{services: directory[:2]})
	_, err := r.Resolve(context.Background(), "", "2017.4.38723")
	if !appErrors.IsCode(err, appErrors.CodeServiceUnavailable) {
		t.Fatalf("expected service_unavailable, got %v", err)
	}
}

func TestResolvePropagatesListingError(t *testing.T) {
	boom := errors.New("hub down")
	r := NewResolver(&fakeLister{err: boom})
	if _, err := r.Resolve(context.Background(), "", ""); !errors.Is(err, boom) {
		t.Fatalf("expected listing error, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	r := NewResolver(&fakeLister{services: directory})
	got, err := r.Lookup(context.Background(), "old")
	if err != nil || got.Name != "Legacy" {
		t.Fatalf("Lookup(old) = %+v, %v", got, err)
	}
	if _, err := r.Lookup(context.Background(), "no-url"); !appErrors.IsCode(err, appErrors.CodeServiceUnavailable) {
		t.Fatalf("expected service_unavailable for service without URL, got %v", err)
	}
}

func TestConcurrentListingsAreShared(t *testing.T) {
	lister := &fakeLister{services: directory, delay: 50 * time.Millisecond}
	r := NewResolver(lister)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Eligible(context.Background(), ""); err != nil {
				t.Errorf("Eligible: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := lister.calls.Load(); n >= 5 {
		t.Fatalf("expected shared listings, got %d calls", n)
	}
}

func TestClientListServices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hub/api/rest/services" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != ServiceFields {
			t.Errorf("fields = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "applicationName:YouTrack" {
			t.Errorf("query = %q", got)
		}
		_, _ = w.Write([]byte(`{"services":[{"id":"main","name":"Main","applicationName":"YouTrack","homeUrl":"https://yt.example.com","version":"2023.2"}]}`))
	}))
	defer server.Close()

	client := NewClient(youtrack.NewClient(server.URL + "/hub"))
	services, err := client.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 || services[0].HomeURL != "https://yt.example.com" {
		t.Fatalf("unexpected services %+v", services)
	}
}
