package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryCatalog is a DestinationCatalog that can be filled at runtime, for
// hosts that discover bindings after the service is built.
type MemoryCatalog struct {
	mu           sync.RWMutex
	destinations map[string]DestinationConfig
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{destinations: make(map[string]DestinationConfig)}
}

func (c *MemoryCatalog) Register(name string, entry DestinationConfig) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("core: destination name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.destinations[name]; exists {
		return fmt.Errorf("core: destination already registered: %s", name)
	}
	c.destinations[name] = DestinationConfig{Kind: entry.Kind, Credentials: copyAnyMap(entry.Credentials)}
	return nil
}

// Put registers or replaces name.
func (c *MemoryCatalog) Put(name string, entry DestinationConfig) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("core: destination name is required")
	}
	c.mu.Lock()
	c.destinations[name] = DestinationConfig{Kind: entry.Kind, Credentials: copyAnyMap(entry.Credentials)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCatalog) Remove(name string) {
	c.mu.Lock()
	delete(c.destinations, strings.TrimSpace(name))
	c.mu.Unlock()
}

func (c *MemoryCatalog) Destination(name string) (DestinationConfig, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DestinationConfig{}, false
	}
	c.mu.RLock()
	entry, ok := c.destinations[name]
	c.mu.RUnlock()
	if !ok {
		return DestinationConfig{}, false
	}
	return DestinationConfig{Kind: entry.Kind, Credentials: copyAnyMap(entry.Credentials)}, true
}

func (c *MemoryCatalog) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.destinations))
	for name := range c.destinations {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}
