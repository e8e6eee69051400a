// Package storage persists widget configuration and cache blobs. Both blobs
// are opaque JSON documents keyed by widget id.
package storage

import (
	"context"
	"fmt"

	appErrors "ytissues/internal/errors"

	"github.com/goccy/go-json"
)

// Store is the host persistence used by a widget. Reads of a missing blob
// return (nil, nil).
type Store interface {
	ReadConfig(ctx context.Context, widgetID string) (json.RawMessage, error)
	StoreConfig(ctx context.Context, widgetID string, data json.RawMessage) error
	ReadCache(ctx context.Context, widgetID string) (json.RawMessage, error)
	StoreCache(ctx context.Context, widgetID string, data json.RawMessage) error
	Remove(ctx context.Context, widgetID string) error
	Close() error
}

// Watcher is implemented by stores that can report external edits of a
// widget's configuration.
type Watcher interface {
	WatchConfig(ctx context.Context, widgetID string) (<-chan struct{}, error)
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Open creates the store for backend rooted at path.
func Open(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(ctx, path)
	case BackendFile:
		return OpenFile(path)
	default:
		return nil, appErrors.New(appErrors.CodeConfigurationError, fmt.Sprintf("unknown storage backend %q", backend), nil)
	}
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return appErrors.New(appErrors.CodeStorage, op, err)
}
