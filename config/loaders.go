// Package config provides raw configuration loaders for core.CfgxConfigProvider.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-destinations/core"
	"gopkg.in/yaml.v3"
)

const (
	EnvDebug              = "DEBUG"
	EnvDestinationsConfig = "DESTINATIONS_CONFIG"
)

const (
	keyServiceName  = "service_name"
	keyDebug        = "debug"
	keyDestinations = "destinations"
	keyRequires     = "requires"
)

// FileLoader reads a YAML or JSON file. A top-level "requires" block is
// accepted as an alias for "destinations".
type FileLoader struct {
	Path string
}

func NewFileLoader(path string) FileLoader {
	return FileLoader{Path: path}
}

func (l FileLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(raw)
}

// Decode parses YAML (and therefore JSON) into a raw config map.
func Decode(raw []byte) (map[string]any, error) {
	values := map[string]any{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return values, nil
	}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if requires, ok := values[keyRequires]; ok {
		if _, exists := values[keyDestinations]; !exists {
			values[keyDestinations] = requires
		}
		delete(values, keyRequires)
	}
	return values, nil
}

// EnvLoader reads DEBUG=true and a JSON destinations map from
// DESTINATIONS_CONFIG.
type EnvLoader struct {
	Lookup func(key string) (string, bool)
}

func NewEnvLoader() EnvLoader {
	return EnvLoader{Lookup: os.LookupEnv}
}

func (l EnvLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	values := map[string]any{}
	if raw, ok := lookup(EnvDebug); ok && strings.TrimSpace(raw) == "true" {
		values[keyDebug] = true
	}
	if raw, ok := lookup(EnvDestinationsConfig); ok && strings.TrimSpace(raw) != "" {
		destinations := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &destinations); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", EnvDestinationsConfig, err)
		}
		values[keyDestinations] = destinations
	}
	return values, nil
}

// ChainLoader merges loaders in order. Later loaders win per top-level key,
// except destinations which merge per name.
type ChainLoader []core.RawConfigLoader

func (c ChainLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	merged := map[string]any{}
	for _, loader := range c {
		if loader == nil {
			continue
		}
		values, err := loader.LoadRaw(ctx)
		if err != nil {
			return nil, err
		}
		for key, value := range values {
			if key != keyDestinations {
				merged[key] = value
				continue
			}
			incoming, ok := value.(map[string]any)
			if !ok {
				merged[key] = value
				continue
			}
			existing, _ := merged[keyDestinations].(map[string]any)
			if existing == nil {
				existing = map[string]any{}
			}
			for name, entry := range incoming {
				existing[name] = entry
			}
			merged[keyDestinations] = existing
		}
	}
	return merged, nil
}

var (
	_ core.RawConfigLoader = FileLoader{}
	_ core.RawConfigLoader = EnvLoader{}
	_ core.RawConfigLoader = ChainLoader{}
)
