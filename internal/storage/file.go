package storage

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ytissues/internal/debug"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-json"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// FileStore keeps each widget's blobs as JSON files in one directory:
// <id>.json for the configuration and <id>.cache.json for the cache.
// Configuration files may be edited by hand and can contain comments and
// trailing commas.
type FileStore struct {
	dir string

	mu          sync.Mutex
	lastWritten map[string][]byte
}

// OpenFile opens (creating when needed) the store directory.
func OpenFile(dir string) (*FileStore, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, storageErr("open file store", errors.New("empty directory"))
	}
	//nolint:gosec // G301: store directory lives under the user's home
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, storageErr("create store directory", err)
	}
	debug.Logf("storage: file store at %s", trimmed)
	return &FileStore{dir: trimmed, lastWritten: map[string][]byte{}}, nil
}

func fileName(widgetID, suffix string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, widgetID)
	return safe + suffix
}

func (s *FileStore) configPath(widgetID string) string {
	return filepath.Join(s.dir, fileName(widgetID, ".json"))
}

func (s *FileStore) cachePath(widgetID string) string {
	return filepath.Join(s.dir, fileName(widgetID, ".cache.json"))
}

func readFile(path string) ([]byte, error) {
	//nolint:gosec // G304: path is derived from the store directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

// ReadConfig implements Store.
func (s *FileStore) ReadConfig(_ context.Context, widgetID string) (json.RawMessage, error) {
	data, err := readFile(s.configPath(widgetID))
	if err != nil || data == nil {
		return nil, storageErr("read config for "+widgetID, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, storageErr("parse config for "+widgetID, err)
	}
	return json.RawMessage(standardized), nil
}

// StoreConfig implements Store.
func (s *FileStore) StoreConfig(_ context.Context, widgetID string, data json.RawMessage) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return storageErr("format config for "+widgetID, err)
	}
	pretty.WriteByte('\n')
	content := pretty.Bytes()

	s.mu.Lock()
	s.lastWritten[widgetID] = content
	s.mu.Unlock()

	return storageErr("store config for "+widgetID, atomic.WriteFile(s.configPath(widgetID), bytes.NewReader(content)))
}

// ReadCache implements Store.
func (s *FileStore) ReadCache(_ context.Context, widgetID string) (json.RawMessage, error) {
	data, err := readFile(s.cachePath(widgetID))
	if err != nil || data == nil {
		return nil, storageErr("read cache for "+widgetID, err)
	}
	return json.RawMessage(data), nil
}

// StoreCache implements Store.
func (s *FileStore) StoreCache(_ context.Context, widgetID string, data json.RawMessage) error {
	return storageErr("store cache for "+widgetID, atomic.WriteFile(s.cachePath(widgetID), bytes.NewReader(data)))
}

// Remove implements Store.
func (s *FileStore) Remove(_ context.Context, widgetID string) error {
	for _, p := range []string{s.configPath(widgetID), s.cachePath(widgetID)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return storageErr("remove widget "+widgetID, err)
		}
	}
	s.mu.Lock()
	delete(s.lastWritten, widgetID)
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// WatchConfig reports edits of the widget's configuration file made outside
// this store. The channel is closed when ctx ends.
func (s *FileStore) WatchConfig(ctx context.Context, widgetID string) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, storageErr("create watcher", err)
	}
	// Watch the directory: atomic writes replace the file.
	if err := fsw.Add(s.dir); err != nil {
		_ = fsw.Close()
		return nil, storageErr("watch "+s.dir, err)
	}

	target := filepath.Base(s.configPath(widgetID))
	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer func() { _ = fsw.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if s.isOwnWrite(widgetID) {
					continue
				}
				debug.Logf("storage: external edit of %s", event.Name)
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				debug.Logf("storage: watcher error: %v", err)
			}
		}
	}()
	return changes, nil
}

// isOwnWrite reports whether the file on disk still holds what this store
// last wrote.
func (s *FileStore) isOwnWrite(widgetID string) bool {
	data, err := readFile(s.configPath(widgetID))
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastWritten[widgetID]
	return ok && bytes.Equal(last, data)
}
