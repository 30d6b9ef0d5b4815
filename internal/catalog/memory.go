// internal/catalog/memory.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// MemoryCatalog serves presets held in memory.
type MemoryCatalog struct {
	mu      sync.RWMutex
	presets map[int]*Preset
}

func NewMemoryCatalog(presets ...*Preset) *MemoryCatalog {
	c := &MemoryCatalog{presets: make(map[int]*Preset, len(presets))}
	for _, p := range presets {
		c.Put(p)
	}
	return c
}

// LoadFile reads a JSON array of presets.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var presets []*Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return NewMemoryCatalog(presets...), nil
}

func (c *MemoryCatalog) Put(p *Preset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presets[p.ID] = p
}

func (c *MemoryCatalog) Preset(_ context.Context, id int) (*Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[id]
	if !ok {
		return nil, fmt.Errorf("preset %d: %w", id, ErrPresetNotFound)
	}
	return p, nil
}
