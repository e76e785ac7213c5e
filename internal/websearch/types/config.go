package types

type ProviderID string

const (
	ProviderDuckDuckGo ProviderID = "duckduckgo"
	ProviderTavily     ProviderID = "tavily"
	ProviderSearXNG    ProviderID = "searxng"
)

// ProviderConfig represents search provider configuration
type ProviderConfig struct {
	ID   ProviderID `json:"id" yaml:"id" mapstructure:"id"`
	Name string     `json:"name" yaml:"name" mapstructure:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host" mapstructure:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// SearXNG Basic Auth
	BasicAuthUsername string `json:"basic_auth_username,omitempty" yaml:"basic_auth_username,omitempty" mapstructure:"basic_auth_username"`
	BasicAuthPassword string `json:"basic_auth_password,omitempty" yaml:"basic_auth_password,omitempty" mapstructure:"basic_auth_password"`

	// Optional settings
	Timeout    int     `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`             // seconds
	MaxRetries int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty" mapstructure:"max_retries"` // default: 3
	RateLimit  float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`    // requests per second, 0 = unlimited
	UserAgent  string  `json:"user_agent,omitempty" yaml:"user_agent,omitempty" mapstructure:"user_agent"`
}

// Validate validates the provider configuration
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidProviderID
	}
	if c.Name == "" {
		return ErrInvalidProviderName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	switch c.ID {
	case ProviderDuckDuckGo:
		// 公共 instant answer 接口，无需鉴权
	case ProviderSearXNG:
		if c.BasicAuthUsername != "" && c.BasicAuthPassword == "" {
			return ErrMissingBasicAuthPassword
		}
	default:
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
	}

	return nil
}
