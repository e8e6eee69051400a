package widget

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"ytissues/internal/storage"

	"github.com/goccy/go-json"
)

// ConfigBackend reads and writes one widget's configuration blob.
type ConfigBackend interface {
	ReadConfig(ctx context.Context) (json.RawMessage, error)
	StoreConfig(ctx context.Context, data json.RawMessage) error
}

// StoreBackend binds a storage.Store to one widget id.
type StoreBackend struct {
	Store    storage.Store
	WidgetID string
}

// ReadConfig implements ConfigBackend.
func (b StoreBackend) ReadConfig(ctx context.Context) (json.RawMessage, error) {
	return b.Store.ReadConfig(ctx, b.WidgetID)
}

// StoreConfig implements ConfigBackend.
func (b StoreBackend) StoreConfig(ctx context.Context, data json.RawMessage) error {
	return b.Store.StoreConfig(ctx, b.WidgetID, data)
}

// ConfigStore is a typed accessor over the persisted configuration. Reading
// a field before Init or naming an undeclared field panics. It is safe for
// concurrent use.
type ConfigStore struct {
	backend ConfigBackend
	fields  []string

	mu          sync.Mutex
	initialized bool
	config      map[string]json.RawMessage
}

// NewConfigStore creates a store exposing the declared fields.
func NewConfigStore(backend ConfigBackend, fields ...string) *ConfigStore {
	return &ConfigStore{backend: backend, fields: fields}
}

// NewWidgetConfigStore creates a store over the widget's persisted fields.
func NewWidgetConfigStore(backend ConfigBackend) *ConfigStore {
	return NewConfigStore(backend, ConfigFields...)
}

// Init reads the stored configuration. A missing blob is a new config.
func (s *ConfigStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init(ctx)
}

func (s *ConfigStore) init(ctx context.Context) error {
	data, err := s.backend.ReadConfig(ctx)
	if err != nil {
		return err
	}
	var config map[string]json.RawMessage
	if len(bytes.TrimSpace(data)) > 0 && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("decode widget config: %w", err)
		}
		if config == nil {
			config = map[string]json.RawMessage{}
		}
	}
	s.config = config
	s.initialized = true
	return nil
}

// IsInitialized reports whether Init or Replace has completed.
func (s *ConfigStore) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// IsNewConfig reports whether no configuration was stored.
func (s *ConfigStore) IsNewConfig() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isNew()
}

func (s *ConfigStore) isNew() bool {
	s.mustBeInitialized()
	return s.config == nil
}

// Field returns the raw value of a declared field, or nil when unset.
func (s *ConfigStore) Field(name string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.field(name)
}

func (s *ConfigStore) field(name string) json.RawMessage {
	s.mustBeInitialized()
	if !slices.Contains(s.fields, name) {
		panic(fmt.Sprintf("widget config does not have field %q", name))
	}
	return s.config[name]
}

// Decode unmarshals a declared field into v. Unset fields leave v untouched.
func (s *ConfigStore) Decode(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode(name, v)
}

func (s *ConfigStore) decode(name string, v any) error {
	raw := s.field(name)
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Update merges partial over the stored configuration field by field and
// writes the result. It returns false without writing when nothing changed.
func (s *ConfigStore) Update(ctx context.Context, partial map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.init(ctx); err != nil {
		return false, err
	}
	encoded, err := encodeValues(partial)
	if err != nil {
		return false, err
	}
	if s.config == nil {
		return true, s.write(ctx, encoded)
	}
	if partial == nil {
		return false, nil
	}

	merged := make(map[string]json.RawMessage, len(s.fields))
	changed := false
	for _, f := range s.fields {
		prev, hadPrev := s.config[f]
		next, ok := encoded[f]
		if !ok {
			if hadPrev {
				merged[f] = prev
			}
			continue
		}
		merged[f] = next
		if !hadPrev || !sameJSON(prev, next) {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, s.write(ctx, merged)
}

// Replace writes values (restricted to declared fields) unconditionally.
func (s *ConfigStore) Replace(ctx context.Context, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	encoded, err := encodeValues(values)
	if err != nil {
		return err
	}
	return s.write(ctx, encoded)
}

func (s *ConfigStore) write(ctx context.Context, values map[string]json.RawMessage) error {
	filtered := make(map[string]json.RawMessage, len(s.fields))
	for _, f := range s.fields {
		if v, ok := values[f]; ok {
			filtered[f] = v
		}
	}
	data, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("encode widget config: %w", err)
	}
	if err := s.backend.StoreConfig(ctx, data); err != nil {
		return err
	}
	s.config = filtered
	s.initialized = true
	return nil
}

// Config decodes the typed configuration. It returns nil for a new config.
func (s *ConfigStore) Config() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isNew() {
		return nil, nil
	}
	var cfg Config
	if err := s.decode(FieldSearch, &cfg.Search); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FieldSearch, err)
	}
	if err := s.decode(FieldContext, &cfg.Context); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FieldContext, err)
	}
	if err := s.decode(FieldTitle, &cfg.Title); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FieldTitle, err)
	}
	if err := s.decode(FieldRefreshPeriod, &cfg.RefreshPeriod); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FieldRefreshPeriod, err)
	}
	if err := s.decode(FieldYouTrack, &cfg.YouTrack); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FieldYouTrack, err)
	}
	return &cfg, nil
}

func (s *ConfigStore) mustBeInitialized() {
	if !s.initialized {
		panic("widget config accessed before initialization")
	}
}

func encodeValues(values map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode config field %s: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}

func sameJSON(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
