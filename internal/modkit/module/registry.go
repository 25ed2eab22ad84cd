// Package module is the contract a service module satisfies and the
// registry bootstrap uses to wire modules to each other and to the admin router
package module

import (
	"sort"
	"sync"

	phttp "opengov/internal/platform/net/http"
)

// Module mounts admin routes and exposes a port set for cross wiring
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// Registry holds modules by name for the life of the process
type Registry struct {
	mu   sync.RWMutex
	mods map[string]Module
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry { return &Registry{mods: map[string]Module{}} }

// Register adds m, replacing any module already registered under the same name
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mods[m.Name()] = m
}

// MountAll mounts every registered module in name order
func (r *Registry) MountAll(rt phttp.Router) {
	r.mu.RLock()
	names := make([]string, 0, len(r.mods))
	for n := range r.mods {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	for _, n := range names {
		r.mu.RLock()
		m := r.mods[n]
		r.mu.RUnlock()
		m.MountRoutes(rt)
	}
}

// PortsAs returns the port set registered under name asserted to T
func PortsAs[T any](r *Registry, name string) (T, bool) {
	var zero T
	r.mu.RLock()
	m, ok := r.mods[name]
	r.mu.RUnlock()
	if !ok {
		return zero, false
	}
	out, ok := m.Ports().(T)
	return out, ok
}
