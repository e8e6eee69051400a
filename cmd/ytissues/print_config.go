package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ytissues/internal/config"
	"ytissues/internal/storage"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

type printedConfig struct {
	Settings map[string]any `yaml:"settings"`
	WidgetID string         `yaml:"widget_id"`
	Widget   map[string]any `yaml:"widget"`
}

// printConfig writes the effective settings and the stored configuration of
// widgetID as YAML. Secrets are masked.
func printConfig(ctx context.Context, w io.Writer, settings map[string]any, store storage.Store, widgetID string) error {
	out := printedConfig{
		Settings: redactSecrets(settings),
		WidgetID: widgetID,
	}
	raw, err := store.ReadConfig(ctx, widgetID)
	if err != nil {
		return fmt.Errorf("read widget config: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Widget); err != nil {
			return fmt.Errorf("decode widget config: %w", err)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// redactSecrets returns a copy of settings with the hub token masked.
func redactSecrets(settings map[string]any) map[string]any {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		out[k] = v
	}
	section, name, _ := strings.Cut(config.KeyHubToken, ".")
	values, ok := settings[section].(map[string]any)
	if !ok {
		return out
	}
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	if token, _ := copied[name].(string); token != "" {
		copied[name] = redacted
	}
	out[section] = copied
	return out
}
