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

// Registry keeps the configured embedding and generation providers by name
type Registry struct {
	mu         sync.RWMutex
	embedders  map[string]EmbeddingProvider
	generators map[string]GenerationProvider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		embedders:  make(map[string]EmbeddingProvider),
		generators: make(map[string]GenerationProvider),
	}
}

// RegisterEmbedder registers an embedding provider
func (r *Registry) RegisterEmbedder(p EmbeddingProvider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}
	if p.Name() == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.embedders[p.Name()]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.embedders[p.Name()] = p
	return nil
}

// RegisterGenerator registers a generation provider
func (r *Registry) RegisterGenerator(p GenerationProvider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}
	if p.Name() == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[p.Name()]; exists {
		return ErrProviderAlreadyRegistered
	}
	r.generators[p.Name()] = p
	return nil
}

// Embedder retrieves an embedding provider by name
func (r *Registry) Embedder(name string) (EmbeddingProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.embedders[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// Generator retrieves a generation provider by name
func (r *Registry) Generator(name string) (GenerationProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.generators[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return p, nil
}

// ListProviders returns the sorted names of every registered provider
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range r.embedders {
		seen[name] = struct{}{}
	}
	for name := range r.generators {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered providers of either kind
func (r *Registry) Count() int {
	return len(r.ListProviders())
}
