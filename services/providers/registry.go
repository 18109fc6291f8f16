package providers

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry holds the generators and embedders available to the process, keyed by name
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	embedders  map[string]Embedder
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		embedders:  make(map[string]Embedder),
	}
}

// RegisterGenerator registers a generator instance
func (r *Registry) RegisterGenerator(g Generator) error {
	if g == nil {
		return errors.New("generator cannot be nil")
	}
	if g.Name() == "" {
		return errors.New("generator name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[g.Name()]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.generators[g.Name()] = g
	return nil
}

// RegisterEmbedder registers an embedder instance
func (r *Registry) RegisterEmbedder(e Embedder) error {
	if e == nil {
		return errors.New("embedder cannot be nil")
	}
	if e.Name() == "" {
		return errors.New("embedder name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embedders[e.Name()]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.embedders[e.Name()] = e
	return nil
}

// Generator returns the generator registered under name
func (r *Registry) Generator(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return g, nil
}

// Embedder returns the embedder registered under name
func (r *Registry) Embedder(name string) (Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.embedders[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return e, nil
}

// ListGenerators returns registered generator names in sorted order
func (r *Registry) ListGenerators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEmbedders returns registered embedder names in sorted order
func (r *Registry) ListEmbedders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.embedders))
	for name := range r.embedders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
