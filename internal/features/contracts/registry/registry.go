package registry

import (
	"sync"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/contracts/models"
)

// Registry holds the contract plugins available to the terminal.
type Registry struct {
	mu      sync.RWMutex
	plugins []models.Plugin
}

func New() *Registry {
	return &Registry{}
}

// Register adds a plugin after initializing it. Duplicate names are
// rejected.
func (r *Registry) Register(plugin models.Plugin, cfg models.PluginConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.plugins {
		if p.Name() == plugin.Name() {
			return errors.NewConflictError("plugin", "plugin already registered: "+plugin.Name())
		}
	}
	if err := plugin.Initialize(cfg); err != nil {
		return err
	}
	r.plugins = append(r.plugins, plugin)
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (models.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// List returns registered plugin names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}

// All returns metadata for every registered plugin.
func (r *Registry) All() []models.ContractMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ContractMetadata, len(r.plugins))
	for i, p := range r.plugins {
		out[i] = p.Metadata()
	}
	return out
}
