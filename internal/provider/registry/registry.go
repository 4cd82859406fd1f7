// Package registry provides provider factory registration and lookup.
//
// Each adapter package exposes an explicit registration function that calls
// RegisterFactory; internal/registration wires them all from cmd (or tests)
// so there are no init() side effects.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
)

// Factory defines how to create a provider of a specific type.
type Factory struct {
	// Type is the provider type identifier referenced by tool descriptors
	// (e.g. "replicate", "fal", "sora").
	Type string

	// ConfigKey names the config.Providers entry supplying this provider's
	// credentials. Several provider types can share one credential, e.g.
	// the video and image surfaces of the same vendor.
	ConfigKey string

	// Description is a human-readable description of the backend.
	Description string

	// Create instantiates the provider from its configuration.
	Create func(cfg config.ProviderConfig) (domain.Provider, error)
}

var (
	factoryMu   sync.RWMutex
	factoryMap  = make(map[string]Factory)
	factoryList []Factory
)

// RegisterFactory registers a provider factory for a specific type.
// Panics if a factory with the same type is already registered.
func RegisterFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Type == "" {
		panic("provider factory type cannot be empty")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("provider factory %q must have a Create function", f.Type))
	}
	if _, exists := factoryMap[f.Type]; exists {
		panic(fmt.Sprintf("provider factory %q already registered", f.Type))
	}

	factoryMap[f.Type] = f
	factoryList = append(factoryList, f)
}

// GetFactory returns the factory for a provider type, if registered.
func GetFactory(providerType string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factoryMap[providerType]
	return f, ok
}

// ListFactories returns all registered provider factories sorted by type.
func ListFactories() []Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	result := make([]Factory, len(factoryList))
	copy(result, factoryList)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// IsRegistered returns true if a provider type is registered.
func IsRegistered(providerType string) bool {
	_, ok := GetFactory(providerType)
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryMap = make(map[string]Factory)
	factoryList = nil
}

// CreateFromConfig instantiates the provider for providerType using the
// credentials resolved from cfg via the factory's ConfigKey. Providers whose
// credential is a placeholder are refused here, before any network call.
func CreateFromConfig(providerType string, cfg *config.Config) (domain.Provider, error) {
	f, ok := GetFactory(providerType)
	if !ok {
		return nil, fmt.Errorf("no factory registered for provider type %q", providerType)
	}

	key := f.ConfigKey
	if key == "" {
		key = f.Type
	}
	pc, ok := cfg.Provider(key)
	if !ok || !pc.Configured() {
		return nil, fmt.Errorf("%s: %w", providerType, domain.ErrNotConfigured)
	}
	return f.Create(pc)
}
