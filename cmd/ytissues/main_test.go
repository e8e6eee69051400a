package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"ytissues/internal/config"
	appErrors "ytissues/internal/errors"
	"ytissues/internal/storage"
	"ytissues/internal/ui"
	"ytissues/internal/youtrack"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type stubProgram struct {
	err error
	ran bool
}

func (p *stubProgram) Run() (tea.Model, error) {
	p.ran = true
	return nil, p.err
}

func TestCollectOverrides(t *testing.T) {
	fs, flags := newFlagSet()
	if err := fs.Parse([]string{"--hub-url", " https://hub.example.com ", "--read-only", "--widget", "w-7", "--debug"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	overrides, err := collectOverrides(fs)
	if err != nil {
		t.Fatalf("collectOverrides: %v", err)
	}

	want := map[string]any{
		config.KeyHubURL:         "https://hub.example.com",
		config.KeyWidgetReadOnly: true,
		config.KeyWidgetID:       "w-7",
	}
	if len(overrides) != len(want) {
		t.Fatalf("expected %d overrides, got %v", len(want), overrides)
	}
	for k, v := range want {
		if overrides[k] != v {
			t.Errorf("override %s = %v, want %v", k, overrides[k], v)
		}
	}
	if !flags.debug {
		t.Error("expected debug flag set")
	}
}

func TestCollectOverridesIgnoresDefaults(t *testing.T) {
	fs, _ := newFlagSet()
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	overrides, err := collectOverrides(fs)
	if err != nil {
		t.Fatalf("collectOverrides: %v", err)
	}
	if len(overrides) != 0 {
		t.Errorf("expected no overrides, got %v", overrides)
	}
}

func TestRunVersionSkipsConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := run([]string{"--version"}, &buf); err != nil {
		t.Fatalf("run --version: %v", err)
	}
	if !strings.Contains(buf.String(), "ytissues version") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestBuildAppConfig(t *testing.T) {
	t.Setenv("YTI_HUB_URL", "")
	t.Setenv("YTI_YOUTRACK_COUNT_API", "")

	t.Run("MissingHubURL", func(t *testing.T) {
		cleanup := config.ResetForTesting(t)
		defer cleanup()

		_, err := buildAppConfig(nil, "default")
		if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("InvalidCountAPI", func(t *testing.T) {
		cleanup := config.ResetForTesting(t)
		defer cleanup()
		if err := config.ApplyOverrides(map[string]any{
			config.KeyHubURL:   "https://hub.example.com",
			config.KeyCountAPI: "graphql",
		}); err != nil {
			t.Fatal(err)
		}

		_, err := buildAppConfig(nil, "default")
		if !appErrors.IsCode(err, appErrors.CodeConfigurationError) {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})

	t.Run("Wired", func(t *testing.T) {
		cleanup := config.ResetForTesting(t)
		defer cleanup()
		if err := config.ApplyOverrides(map[string]any{
			config.KeyHubURL:         "https://hub.example.com",
			config.KeyCountAPI:       youtrack.CounterIssuesGetter,
			config.KeyLocale:         "de",
			config.KeyWidgetReadOnly: true,
		}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildAppConfig(nil, "w-1")
		if err != nil {
			t.Fatalf("buildAppConfig: %v", err)
		}
		if cfg.WidgetID != "w-1" || !cfg.ReadOnly {
			t.Errorf("unexpected widget settings: %+v", cfg)
		}
		if _, ok := cfg.Counter.(youtrack.IssuesGetterCounter); !ok {
			t.Errorf("expected issuesGetter counter, got %T", cfg.Counter)
		}
		if cfg.Translator.Tag().String() != "de" {
			t.Errorf("expected German translator, got %s", cfg.Translator.Tag())
		}
		if cfg.DefaultRefreshPeriod != config.DefaultRefreshSeconds {
			t.Errorf("expected default refresh %d, got %d", config.DefaultRefreshSeconds, cfg.DefaultRefreshPeriod)
		}
		if cfg.Directory == nil || cfg.Transport("https://yt.example.com") == nil {
			t.Error("expected directory and transport wired")
		}
	})
}

func TestRunProgram(t *testing.T) {
	builder := func(cfg ui.Config) *ui.App { return ui.NewApp(cfg) }

	t.Run("Runs", func(t *testing.T) {
		prog := &stubProgram{}
		app, err := runProgram(ui.Config{WidgetID: "w-1"}, builder, func(*ui.App) programRunner { return prog })
		if err != nil {
			t.Fatalf("runProgram: %v", err)
		}
		if !prog.ran || app == nil {
			t.Fatal("expected program to run")
		}
		if app.Removed() {
			t.Error("did not expect widget removed")
		}
	})

	t.Run("NilFactory", func(t *testing.T) {
		if _, err := runProgram(ui.Config{}, builder, nil); err == nil {
			t.Fatal("expected error for nil factory")
		}
	})

	t.Run("RunError", func(t *testing.T) {
		prog := &stubProgram{err: errors.New("tty gone")}
		_, err := runProgram(ui.Config{}, builder, func(*ui.App) programRunner { return prog })
		if err == nil || !strings.Contains(err.Error(), "tty gone") {
			t.Fatalf("expected wrapped run error, got %v", err)
		}
	})
}

func TestPrintConfig(t *testing.T) {
	ctx := context.Background()
	store, err := storage.OpenFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	stored, err := json.Marshal(map[string]any{"search": "#Bug", "refreshPeriod": 600})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.StoreConfig(ctx, "w-1", stored); err != nil {
		t.Fatal(err)
	}

	settings := map[string]any{
		"hub":    map[string]any{"url": "https://hub.example.com", "token": "perm:secret"},
		"locale": "en",
	}
	var buf bytes.Buffer
	if err := printConfig(ctx, &buf, settings, store, "w-1"); err != nil {
		t.Fatalf("printConfig: %v", err)
	}

	var printed struct {
		Settings map[string]any `yaml:"settings"`
		WidgetID string         `yaml:"widget_id"`
		Widget   map[string]any `yaml:"widget"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &printed); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if strings.Contains(buf.String(), "perm:secret") {
		t.Errorf("expected token redacted:\n%s", buf.String())
	}
	hubSection, _ := printed.Settings["hub"].(map[string]any)
	if hubSection["token"] != redacted || hubSection["url"] != "https://hub.example.com" {
		t.Errorf("unexpected hub section %v", hubSection)
	}
	if printed.WidgetID != "w-1" || printed.Widget["search"] != "#Bug" || printed.Widget["refreshPeriod"] != 600 {
		t.Errorf("unexpected widget section %+v", printed)
	}
	if tok := settings["hub"].(map[string]any)["token"]; tok != "perm:secret" {
		t.Error("expected input settings left untouched")
	}
}
