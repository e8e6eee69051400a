package widget

import (
	"context"
	"errors"
	"testing"

	"ytissues/internal/youtrack"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type memoryBackend struct {
	data    json.RawMessage
	writes  int
	readErr error
}

func (m *memoryBackend) ReadConfig(context.Context) (json.RawMessage, error) {
	return m.data, m.readErr
}

func (m *memoryBackend) StoreConfig(_ context.Context, data json.RawMessage) error {
	m.writes++
	m.data = append(json.RawMessage(nil), data...)
	return nil
}

func (m *memoryBackend) decoded(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(m.data, &out); err != nil {
		t.Fatalf("decode stored config: %v", err)
	}
	return out
}

func TestConfigStoreUpdateMergesFields(t *testing.T) {
	backend := &memoryBackend{data: json.RawMessage(`{"search":"a","title":"b"}`)}
	store := NewConfigStore(backend, "search", "title", "context")
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	changed, err := store.Update(ctx, map[string]any{"title": "x"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !changed || backend.writes != 1 {
		t.Fatalf("expected one write, changed=%v writes=%d", changed, backend.writes)
	}
	if diff := cmp.Diff(map[string]any{"search": "a", "title": "x"}, backend.decoded(t)); diff != "" {
		t.Fatalf("merged config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigStoreUpdateIdenticalIsNoop(t *testing.T) {
	backend := &memoryBackend{data: json.RawMessage(`{"search":"a","title":"b"}`)}
	store := NewConfigStore(backend, "search", "title")
	ctx := context.Background()

	changed, err := store.Update(ctx, map[string]any{"search": "a", "title": "b"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed || backend.writes != 0 {
		t.Fatalf("expected no write-through, changed=%v writes=%d", changed, backend.writes)
	}

	changed, err = store.Update(ctx, map[string]any{"unknown": 1})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed || backend.writes != 0 {
		t.Fatalf("undeclared field should not cause a write, writes=%d", backend.writes)
	}
}

func TestConfigStoreUpdateComparesStructuredValues(t *testing.T) {
	backend := &memoryBackend{data: json.RawMessage(`{"context": {"id": "0-1", "$type": "Project", "name": "Demo"}}`)}
	store := NewConfigStore(backend, "context")
	ctx := context.Background()

	same := &youtrack.Folder{ID: "0-1", Type: "Project", Name: "Demo"}
	changed, err := store.Update(ctx, map[string]any{"context": same})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed {
		t.Fatal("equal folder should not be a change")
	}
}

func TestConfigStoreUpdateOnNewConfigWrites(t *testing.T) {
	backend := &memoryBackend{}
	store := NewConfigStore(backend, "search")
	changed, err := store.Update(context.Background(), map[string]any{"search": "#Bug", "extra": true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !changed || backend.writes != 1 {
		t.Fatalf("expected write, changed=%v writes=%d", changed, backend.writes)
	}
	if diff := cmp.Diff(map[string]any{"search": "#Bug"}, backend.decoded(t)); diff != "" {
		t.Fatalf("stored config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigStoreReplaceFiltersAndAlwaysWrites(t *testing.T) {
	backend := &memoryBackend{}
	store := NewWidgetConfigStore(backend)
	ctx := context.Background()
	cfg := Config{Search: "for: me", Title: "Mine", RefreshPeriod: 120, YouTrack: &ServiceRef{ID: "yt", HomeURL: "https://yt", Name: "Main"}}

	for i := 0; i < 2; i++ {
		values := cfg.Values()
		values["isNew"] = true
		if err := store.Replace(ctx, values); err != nil {
			t.Fatalf("Replace: %v", err)
		}
	}
	if backend.writes != 2 {
		t.Fatalf("Replace should always write, writes=%d", backend.writes)
	}
	want := map[string]any{
		"search":        "for: me",
		"context":       nil,
		"title":         "Mine",
		"refreshPeriod": float64(120),
		"youTrack":      map[string]any{"id": "yt", "homeUrl": "https://yt"},
	}
	if diff := cmp.Diff(want, backend.decoded(t)); diff != "" {
		t.Fatalf("stored config mismatch (-want +got):\n%s", diff)
	}
	if !store.IsInitialized() || store.IsNewConfig() {
		t.Fatal("Replace should mark the store initialized with a config")
	}

	got, err := store.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	want2 := &Config{Search: "for: me", Title: "Mine", RefreshPeriod: 120, YouTrack: &ServiceRef{ID: "yt", HomeURL: "https://yt"}}
	if diff := cmp.Diff(want2, got); diff != "" {
		t.Fatalf("typed config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigStoreNewConfig(t *testing.T) {
	store := NewWidgetConfigStore(&memoryBackend{data: json.RawMessage("null")})
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !store.IsNewConfig() {
		t.Fatal("expected new config")
	}
	if got := store.Field(FieldSearch); got != nil {
		t.Fatalf("Field on new config = %s", got)
	}
	cfg, err := store.Config()
	if err != nil || cfg != nil {
		t.Fatalf("Config on new config = %+v, %v", cfg, err)
	}
}

func TestConfigStoreIgnoresExtraStoredFields(t *testing.T) {
	store := NewWidgetConfigStore(&memoryBackend{data: json.RawMessage(`{"search":"#Bug","legacy":42}`)})
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := store.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.Search != "#Bug" || cfg.YouTrack != nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigStoreInitError(t *testing.T) {
	boom := errors.New("disk gone")
	store := NewWidgetConfigStore(&memoryBackend{readErr: boom})
	if err := store.Init(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Init error = %v", err)
	}
	if store.IsInitialized() {
		t.Fatal("failed Init must not mark the store initialized")
	}
}

func TestConfigStoreMisusePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*ConfigStore)
	}{
		{name: "field before init", fn: func(s *ConfigStore) { s.Field(FieldSearch) }},
		{name: "is new before init", fn: func(s *ConfigStore) { s.IsNewConfig() }},
		{name: "unknown field", fn: func(s *ConfigStore) {
			_ = s.Init(context.Background())
			s.Field("color")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.fn(NewWidgetConfigStore(&memoryBackend{data: json.RawMessage(`{}`)}))
		})
	}
}
