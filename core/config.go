package core

import (
	"fmt"
	"sort"
	"strings"
)

type Config struct {
	ServiceName  string                       `koanf:"service_name" mapstructure:"service_name"`
	Debug        bool                         `koanf:"debug" mapstructure:"debug"`
	Destinations map[string]DestinationConfig `koanf:"destinations" mapstructure:"destinations"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  "destinations",
		Destinations: map[string]DestinationConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	for name := range c.Destinations {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("core: destination name is required")
		}
	}
	return nil
}

// Destination makes Config usable as the resolver catalog.
func (c Config) Destination(name string) (DestinationConfig, bool) {
	entry, ok := c.Destinations[strings.TrimSpace(name)]
	if !ok {
		return DestinationConfig{}, false
	}
	return DestinationConfig{
		Kind:        entry.Kind,
		Credentials: copyAnyMap(entry.Credentials),
	}, true
}

func (c Config) DestinationNames() []string {
	names := make([]string, 0, len(c.Destinations))
	for name := range c.Destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyAnyMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}

var _ DestinationCatalog = Config{}
