package tools

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
	provreg "github.com/artboardhq/artboard/internal/provider/registry"
)

// Registry holds the dispatchable tool set for the current configuration.
// Rebuild replaces the whole set; reads between rebuilds see a consistent
// snapshot.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]domain.ToolDescriptor
	providers map[string]domain.Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty registry; call Rebuild to populate it.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:     make(map[string]domain.ToolDescriptor),
		providers: make(map[string]domain.Provider),
		logger:    logger,
	}
}

// Rebuild re-registers tools against cfg. Tools whose provider has no real
// credential are kept in the listing but marked NotConfigured, distinct from
// the catalogue's own Unavailable stubs: one asks the operator for an API
// key, the other is not invocable at all.
func (r *Registry) Rebuild(cfg *config.Config) {
	tools := make(map[string]domain.ToolDescriptor, len(catalog))
	providers := make(map[string]domain.Provider)
	unconfigured := make(map[string]bool)

	for _, tool := range catalog {
		if tool.Unavailable {
			tools[tool.ID] = tool
			continue
		}

		if _, ok := providers[tool.Provider]; !ok && !unconfigured[tool.Provider] {
			created, err := provreg.CreateFromConfig(tool.Provider, cfg)
			if err != nil {
				unconfigured[tool.Provider] = true
				r.logger.Debug("provider not configured",
					slog.String("provider", tool.Provider),
					slog.String("reason", err.Error()))
			} else {
				providers[tool.Provider] = created
			}
		}
		tool.NotConfigured = unconfigured[tool.Provider]
		tools[tool.ID] = tool
	}

	r.mu.Lock()
	r.tools = tools
	r.providers = providers
	r.mu.Unlock()

	r.logger.Info("tool registry rebuilt",
		slog.Int("tools", len(tools)),
		slog.Int("providers", len(providers)))
}

// Resolve returns the descriptor and backing provider for a tool id.
// Unknown ids, catalogued-but-unavailable stubs, and tools whose provider
// lacks a credential map to distinct errors.
func (r *Registry) Resolve(id string) (domain.ToolDescriptor, domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[id]
	if !ok {
		return domain.ToolDescriptor{}, nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, id)
	}
	if tool.Unavailable {
		return tool, nil, fmt.Errorf("%w: %s", domain.ErrToolUnavailable, id)
	}
	p, ok := r.providers[tool.Provider]
	if !ok {
		return tool, nil, fmt.Errorf("set an api key for provider %s: %w", tool.Provider, domain.ErrNotConfigured)
	}
	return tool, p, nil
}

// List returns all tools in stable id order, available or not.
func (r *Registry) List() []domain.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolDescriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
