package provider

import (
	"context"
	"testing"

	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"

	"github.com/stretchr/testify/assert"
)

func TestNewFactory(t *testing.T) {
	factory := NewFactory()
	assert.NotNil(t, factory)

	assert.Equal(t, []types.ProviderID{
		types.ProviderDuckDuckGo,
		types.ProviderSearXNG,
		types.ProviderTavily,
	}, factory.ListProviders())
}

func TestFactory_Create(t *testing.T) {
	factory := NewFactory()

	tests := []struct {
		name    string
		config  *types.ProviderConfig
		want    interface{}
		wantErr bool
	}{
		{
			name: "create duckduckgo provider without key",
			config: &types.ProviderConfig{
				ID:      types.ProviderDuckDuckGo,
				Name:    "DuckDuckGo",
				APIHost: DuckDuckGoHost,
			},
			want: &DuckDuckGoProvider{},
		},
		{
			name: "create tavily provider",
			config: &types.ProviderConfig{
				ID:      types.ProviderTavily,
				Name:    "Tavily",
				APIHost: "https://api.tavily.com",
				APIKey:  "test-key",
			},
			want: &TavilyProvider{},
		},
		{
			name: "create searxng provider",
			config: &types.ProviderConfig{
				ID:      types.ProviderSearXNG,
				Name:    "SearXNG",
				APIHost: "https://search.example.com",
			},
			want: &SearXNGProvider{},
		},
		{
			name: "id matched case-insensitively",
			config: &types.ProviderConfig{
				ID:      " SearXNG ",
				Name:    "SearXNG",
				APIHost: "https://search.example.com",
			},
			want: &SearXNGProvider{},
		},
		{
			name:    "nil config",
			wantErr: true,
		},
		{
			name: "invalid config",
			config: &types.ProviderConfig{
				ID:   types.ProviderTavily,
				Name: "Tavily",
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			config: &types.ProviderConfig{
				ID:      "unknown",
				Name:    "Unknown",
				APIHost: "https://api.unknown.com",
				APIKey:  "test-key",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := factory.Create(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, provider)
				return
			}
			assert.NoError(t, err)
			assert.IsType(t, tt.want, provider)
			assert.Equal(t, normalizeID(tt.config.ID), provider.GetID())
		})
	}
}

type mockProvider struct {
	*BaseProvider
}

func (m *mockProvider) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	return &types.SearchResponse{Results: []*types.SearchResult{}}, nil
}

func TestFactory_Register(t *testing.T) {
	factory := NewFactory()

	customID := types.ProviderID("custom")
	factory.Register(customID, func(config *types.ProviderConfig) (Provider, error) {
		return &mockProvider{BaseProvider: NewBaseProvider(config)}, nil
	})

	assert.Contains(t, factory.ListProviders(), customID)

	p, err := factory.Create(&types.ProviderConfig{ID: "Custom", Name: "Custom", APIHost: "https://custom.example.com", APIKey: "k"})
	assert.NoError(t, err)
	assert.IsType(t, &mockProvider{}, p)

	// 注册不影响其它工厂实例
	assert.NotContains(t, NewFactory().ListProviders(), customID)
}
