package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyHubURL     = "hub.url"
	KeyHubToken   = "hub.token"
	KeyHubTimeout = "hub.timeout"

	KeyMinYouTrackVersion = "youtrack.min-version"
	KeyCountAPI           = "youtrack.count-api"

	KeyStorageBackend = "storage.backend"
	KeyStoragePath    = "storage.path"

	KeyWidgetID                    = "widget.id"
	KeyWidgetReadOnly              = "widget.read-only"
	KeyWidgetDefaultRefreshSeconds = "widget.default-refresh-seconds"

	KeyLocale       = "locale"
	KeyOutputFormat = "output.format"
	KeyDebugLogPath = "debug.log-path"
)

const (
	// DefaultRefreshSeconds is the refresh period used when a widget config
	// does not carry one.
	DefaultRefreshSeconds = 240
	// DefaultMinYouTrackVersion is the oldest YouTrack release offered as a backend.
	DefaultMinYouTrackVersion = "2017.4.38723"

	BackendSQLite = "sqlite"
	BackendFile   = "file"

	envPrefix = "YTI"
	dirName   = ".ytissues"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt fetches an integer configuration value, initializing on demand.
func GetInt(key string) int {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

// AllSettings returns the merged configuration as a nested map.
func AllSettings() map[string]any {
	v, err := getViper()
	if err != nil {
		return nil
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return v.AllSettings()
}

// StoragePath returns the configured storage location, falling back to a
// backend-specific default under ~/.ytissues.
func StoragePath() (string, error) {
	if p := strings.TrimSpace(GetString(KeyStoragePath)); p != "" {
		return expandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	if GetString(KeyStorageBackend) == BackendFile {
		return filepath.Join(home, dirName, "widgets"), nil
	}
	return filepath.Join(home, dirName, "widgets.db"), nil
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	if err := validate(v); err != nil {
		return err
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	return nil
}

func validate(v *viper.Viper) error {
	switch backend := v.GetString(KeyStorageBackend); backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unsupported %s %q (want %s or %s)", KeyStorageBackend, backend, BackendSQLite, BackendFile)
	}
	if v.GetInt(KeyWidgetDefaultRefreshSeconds) <= 0 {
		v.Set(KeyWidgetDefaultRefreshSeconds, DefaultRefreshSeconds)
	}
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, dirName, "config.yaml")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHubURL, "")
	v.SetDefault(KeyHubToken, "")
	v.SetDefault(KeyHubTimeout, 30*time.Second)
	v.SetDefault(KeyMinYouTrackVersion, DefaultMinYouTrackVersion)
	v.SetDefault(KeyCountAPI, "searchPage")
	v.SetDefault(KeyStorageBackend, BackendSQLite)
	v.SetDefault(KeyStoragePath, "")
	v.SetDefault(KeyWidgetID, "default")
	v.SetDefault(KeyWidgetReadOnly, false)
	v.SetDefault(KeyWidgetDefaultRefreshSeconds, DefaultRefreshSeconds)
	v.SetDefault(KeyLocale, "en")
	v.SetDefault(KeyOutputFormat, "rich")
	v.SetDefault(KeyDebugLogPath, "")
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
//
//nolint:unused // Used in config_test.go
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting clears package state for tests in other packages.
// Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "none.yaml")))
	return reset
}
