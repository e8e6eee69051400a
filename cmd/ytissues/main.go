package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ytissues/internal/config"
	"ytissues/internal/debug"
	appErrors "ytissues/internal/errors"
	"ytissues/internal/hub"
	"ytissues/internal/i18n"
	"ytissues/internal/storage"
	"ytissues/internal/ui"
	"ytissues/internal/youtrack"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

const startupTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"hub-url":       config.KeyHubURL,
	"token":         config.KeyHubToken,
	"widget":        config.KeyWidgetID,
	"storage":       config.KeyStorageBackend,
	"storage-path":  config.KeyStoragePath,
	"read-only":     config.KeyWidgetReadOnly,
	"locale":        config.KeyLocale,
	"count-api":     config.KeyCountAPI,
	"min-version":   config.KeyMinYouTrackVersion,
	"output-format": config.KeyOutputFormat,
	"debug-log":     config.KeyDebugLogPath,
}

type cliFlags struct {
	version     bool
	printConfig bool
	debug       bool
}

func newFlagSet() (*pflag.FlagSet, *cliFlags) {
	flags := &cliFlags{}
	fs := pflag.NewFlagSet("ytissues", pflag.ContinueOnError)
	fs.String("hub-url", "", "Hub base URL listing the YouTrack services")
	fs.String("token", "", "Permanent token sent to Hub and YouTrack")
	fs.String("widget", "", "Widget id whose configuration and cache are used")
	fs.String("storage", "", "Storage backend (sqlite, file)")
	fs.String("storage-path", "", "Database file or directory of the storage backend")
	fs.Bool("read-only", false, "Never open the configuration form or persist changes")
	fs.String("locale", "", "Interface language (en, de, es, fr, ru, ja)")
	fs.String("count-api", "", "Issue count contract (searchPage, issuesGetter)")
	fs.String("min-version", "", "Oldest YouTrack version offered as a backend")
	fs.String("output-format", "", "Markdown style (rich, light, plain)")
	fs.String("debug-log", "", "Debug log file path")
	fs.BoolVar(&flags.debug, "debug", false, "Write a debug log")
	fs.BoolVar(&flags.version, "version", false, "Print version information and exit")
	fs.BoolVar(&flags.printConfig, "print-config", false, "Print the effective configuration and the stored widget config as YAML and exit")
	return fs, flags
}

// collectOverrides returns the configuration values of explicitly set flags.
func collectOverrides(fs *pflag.FlagSet) (map[string]any, error) {
	overrides := map[string]any{}
	var firstErr error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || firstErr != nil {
			return
		}
		if f.Value.Type() == "bool" {
			v, err := fs.GetBool(f.Name)
			if err != nil {
				firstErr = err
				return
			}
			overrides[key] = v
			return
		}
		overrides[key] = strings.TrimSpace(f.Value.String())
	})
	return overrides, firstErr
}

func run(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if flags.version {
		printVersion(stdout)
		return nil
	}

	if err := config.Initialize(); err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}
	overrides, err := collectOverrides(fs)
	if err != nil {
		return err
	}
	if err := config.ApplyOverrides(overrides); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := debug.Init(flags.debug, config.GetString(config.KeyDebugLogPath)); err != nil {
		return err
	}
	defer debug.Close()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	store, err := openStore(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			debug.Logf("main: close store: %v", err)
		}
	}()

	widgetID := config.GetString(config.KeyWidgetID)
	if flags.printConfig {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return printConfig(ctx, stdout, config.AllSettings(), store, widgetID)
	}

	appCfg, err := buildAppConfig(store, widgetID)
	if err != nil {
		return err
	}
	app, err := runProgram(appCfg, ui.NewApp, func(app *ui.App) programRunner {
		return tea.NewProgram(app, tea.WithAltScreen())
	})
	if err != nil {
		return err
	}
	if app.Removed() {
		fmt.Fprintln(stdout, appCfg.Translator.T(i18n.MsgRemoved))
	}
	return nil
}

func openStore(ctx context.Context) (storage.Store, error) {
	path, err := config.StoragePath()
	if err != nil {
		return nil, err
	}
	backend := config.GetString(config.KeyStorageBackend)
	debug.Logf("main: opening %s store at %s", backend, path)
	return storage.Open(ctx, backend, path)
}

// buildAppConfig wires the Hub directory, the YouTrack transports and the
// translator from the effective configuration.
func buildAppConfig(store storage.Store, widgetID string) (ui.Config, error) {
	hubURL := strings.TrimSpace(config.GetString(config.KeyHubURL))
	if hubURL == "" {
		return ui.Config{}, appErrors.New(appErrors.CodeConfigurationError, "hub.url is not set (use --hub-url or YTI_HUB_URL)", nil)
	}
	clientOpts := []youtrack.ClientOption{
		youtrack.WithToken(config.GetString(config.KeyHubToken)),
		youtrack.WithTimeout(config.GetDuration(config.KeyHubTimeout)),
	}
	counter, err := youtrack.CounterFor(config.GetString(config.KeyCountAPI))
	if err != nil {
		return ui.Config{}, appErrors.New(appErrors.CodeConfigurationError, "invalid "+config.KeyCountAPI, err)
	}
	catalog, err := i18n.NewCatalog()
	if err != nil {
		return ui.Config{}, fmt.Errorf("build translations: %w", err)
	}

	directory := hub.NewResolver(hub.NewClient(youtrack.NewClient(hubURL, clientOpts...)))
	return ui.Config{
		WidgetID:  widgetID,
		Store:     store,
		Directory: directory,
		Transport: func(homeURL string) youtrack.Transport {
			return youtrack.NewClient(homeURL, clientOpts...)
		},
		Counter:              counter,
		MinVersion:           config.GetString(config.KeyMinYouTrackVersion),
		ReadOnly:             config.GetBool(config.KeyWidgetReadOnly),
		DefaultRefreshPeriod: config.GetInt(config.KeyWidgetDefaultRefreshSeconds),
		Translator:           catalog.Translator(config.GetString(config.KeyLocale)),
		OutputFormat:         config.GetString(config.KeyOutputFormat),
		Version:              Version,
	}, nil
}

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func runProgram(cfg ui.Config, builder func(ui.Config) *ui.App, factory programFactory) (*ui.App, error) {
	app := builder(cfg)
	if factory == nil {
		return nil, fmt.Errorf("program factory is nil")
	}
	prog := factory(app)
	if prog == nil {
		return nil, fmt.Errorf("program is nil")
	}
	if _, err := prog.Run(); err != nil {
		return nil, fmt.Errorf("run UI: %w", err)
	}
	return app, nil
}
