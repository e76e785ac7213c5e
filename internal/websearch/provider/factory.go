package provider

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
)

// Builder constructs a provider from validated configuration.
type Builder func(*types.ProviderConfig) (Provider, error)

// builtin 内置的搜索提供商
var builtin = map[types.ProviderID]Builder{
	types.ProviderDuckDuckGo: NewDuckDuckGoProvider,
	types.ProviderTavily:     NewTavilyProvider,
	types.ProviderSearXNG:    NewSearXNGProvider,
}

// Factory maps provider IDs to builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[types.ProviderID]Builder
}

func NewFactory() *Factory {
	builders := make(map[types.ProviderID]Builder, len(builtin))
	for id, b := range builtin {
		builders[id] = b
	}
	return &Factory{builders: builders}
}

// Register adds or replaces a builder.
func (f *Factory) Register(id types.ProviderID, b Builder) {
	f.mu.Lock()
	f.builders[normalizeID(id)] = b
	f.mu.Unlock()
}

// Create builds the provider named by config.ID. IDs are matched case-insensitively.
func (f *Factory) Create(config *types.ProviderConfig) (Provider, error) {
	if config == nil {
		return nil, types.ErrInvalidProviderID
	}
	cfg := *config
	cfg.ID = normalizeID(cfg.ID)

	f.mu.RLock()
	build, ok := f.builders[cfg.ID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", types.ErrProviderNotFound, cfg.ID, f.ListProviders())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ID, err)
	}
	return build(&cfg)
}

// ListProviders returns the registered IDs in sorted order.
func (f *Factory) ListProviders() []types.ProviderID {
	f.mu.RLock()
	ids := make([]types.ProviderID, 0, len(f.builders))
	for id := range f.builders {
		ids = append(ids, id)
	}
	f.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func normalizeID(id types.ProviderID) types.ProviderID {
	return types.ProviderID(strings.ToLower(strings.TrimSpace(string(id))))
}
