package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/auth/middleware"
	"github.com/lk2023060901/microlearn-backend/internal/llm"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/database"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/redis"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/types"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 MICROLEARN_LLM_API_KEY
const EnvPrefix = "MICROLEARN"

type Config struct {
	Server    ServerConfig           `mapstructure:"server"`
	Log       logger.Config          `mapstructure:"log"`
	Database  database.Config        `mapstructure:"database"`
	Redis     RedisConfig            `mapstructure:"redis"`
	Auth      AuthConfig             `mapstructure:"auth"`
	LLM       LLMConfig              `mapstructure:"llm"`
	Search    SearchConfig           `mapstructure:"search"`
	Fetcher   FetcherConfig          `mapstructure:"fetcher"`
	Ranking   research.RankingConfig `mapstructure:"ranking"`
	Pipeline  PipelineConfig         `mapstructure:"pipeline"`
	RateLimit RateLimitConfig        `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig 未启用时不限流，也不做生成去重
type RedisConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

// LLMConfig 模型连接与生成参数
type LLMConfig struct {
	llm.Config `mapstructure:",squash"`

	DigestTokens     int           `mapstructure:"digest_tokens"`
	RoadmapMaxTokens int           `mapstructure:"roadmap_max_tokens"`
	SummaryMaxTokens int           `mapstructure:"summary_max_tokens"`
	ExcerptChars     int           `mapstructure:"excerpt_chars"`
	RoadmapTimeout   time.Duration `mapstructure:"roadmap_timeout"`
	SummaryTimeout   time.Duration `mapstructure:"summary_timeout"`
}

// Enabled 未配置 api key 时使用不可用客户端，各阶段走降级路径
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// Synthesis 转换为综合引擎配置
func (c LLMConfig) Synthesis(maxSources int) research.SynthesisConfig {
	return research.SynthesisConfig{
		MaxResources:     maxSources,
		DigestTokens:     c.DigestTokens,
		RoadmapMaxTokens: c.RoadmapMaxTokens,
		SummaryMaxTokens: c.SummaryMaxTokens,
		ExcerptChars:     c.ExcerptChars,
		Timeout:          c.RoadmapTimeout,
		SummaryTimeout:   c.SummaryTimeout,
	}
}

type SearchConfig struct {
	Provider   types.ProviderConfig `mapstructure:"provider"`
	MinResults int                  `mapstructure:"min_results"`
	Timeout    time.Duration        `mapstructure:"timeout"`
}

// Searcher 转换为搜索配置
func (c SearchConfig) Searcher() research.SearchConfig {
	return research.SearchConfig{MinResults: c.MinResults, Timeout: c.Timeout}
}

type FetcherConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRedirects      int           `mapstructure:"max_redirects"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	MinContentLength  int           `mapstructure:"min_content_length"`
	MaxContentLength  int           `mapstructure:"max_content_length"`
	MaxHeadings       int           `mapstructure:"max_headings"`
	SummaryInputChars int           `mapstructure:"summary_input_chars"`
}

// Fetcher 转换为抓取配置，零值字段沿用默认
func (c FetcherConfig) Fetcher() research.FetcherConfig {
	out := research.DefaultFetcherConfig()
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	if c.MaxRedirects > 0 {
		out.MaxRedirects = c.MaxRedirects
	}
	if c.UserAgent != "" {
		out.UserAgent = c.UserAgent
	}
	if c.MaxBodyBytes > 0 {
		out.MaxBodyBytes = c.MaxBodyBytes
	}
	if c.MinContentLength > 0 {
		out.MinContentLength = c.MinContentLength
	}
	if c.MaxContentLength > 0 {
		out.MaxContentLength = c.MaxContentLength
	}
	if c.MaxHeadings > 0 {
		out.MaxHeadings = c.MaxHeadings
	}
	if c.SummaryInputChars > 0 {
		out.SummaryInputChars = c.SummaryInputChars
	}
	return out
}

type PipelineConfig struct {
	research.PipelineConfig `mapstructure:",squash"`

	LockTTL             time.Duration  `mapstructure:"lock_ttl"`
	AnalyzerSearchLimit int            `mapstructure:"analyzer_search_limit"`
	AnalyzerPages       map[string]int `mapstructure:"analyzer_pages"`
}

// Analyzer 转换为分析器配置
func (c PipelineConfig) Analyzer() research.AnalyzerConfig {
	return research.AnalyzerConfig{
		SearchLimit:       c.AnalyzerSearchLimit,
		ScrapeConcurrency: c.ScrapeConcurrency,
		ScrapePages:       c.AnalyzerPages,
	}
}

type RateLimitConfig struct {
	Enabled  bool                         `mapstructure:"enabled"`
	Generate middleware.RateLimiterConfig `mapstructure:"generate"`
	Search   middleware.RateLimiterConfig `mapstructure:"search"`
	Scrape   middleware.RateLimiterConfig `mapstructure:"scrape"`
	Analyze  middleware.RateLimiterConfig `mapstructure:"analyze"`
	Compare  middleware.RateLimiterConfig `mapstructure:"compare"`
}

// LoadConfig 读取配置文件并叠加环境变量；path 为空时只用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Pipeline.LockTTL <= 0 {
		config.Pipeline.LockTTL = config.GenerationBudget() + lockTTLMargin
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// lockTTLMargin 锁的 TTL 比最长生成时间多留的余量
const lockTTLMargin = 30 * time.Second

// GenerationBudget is the longest a generation can run: the web phase
// followed by one LLM-only synthesis.
func (c *Config) GenerationBudget() time.Duration {
	return c.Pipeline.WebPhaseTimeout + c.LLM.RoadmapTimeout
}

// Validate 校验各模块配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Redis.Enabled {
		if err := c.Redis.Config.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.LLM.Enabled() {
		if err := c.LLM.Config.Validate(); err != nil {
			return fmt.Errorf("llm: %w", err)
		}
	}
	if err := c.Search.Provider.Validate(); err != nil {
		return fmt.Errorf("search.provider: %w", err)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if c.Pipeline.DedupeGeneration && c.Pipeline.LockTTL < c.GenerationBudget() {
		return fmt.Errorf("pipeline.lock_ttl %s is shorter than the generation budget %s (web_phase_timeout + llm.roadmap_timeout)",
			c.Pipeline.LockTTL, c.GenerationBudget())
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	lc := logger.DefaultConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.format", lc.Format)
	v.SetDefault("log.output", lc.Output)
	v.SetDefault("log.enablecaller", lc.EnableCaller)
	v.SetDefault("log.enablestacktrace", lc.EnableStacktrace)
	v.SetDefault("log.file.filename", lc.File.Filename)
	v.SetDefault("log.file.maxsize", lc.File.MaxSize)
	v.SetDefault("log.file.maxage", lc.File.MaxAge)
	v.SetDefault("log.file.maxbackups", lc.File.MaxBackups)
	v.SetDefault("log.file.compress", lc.File.Compress)

	dc := database.DefaultConfig()
	v.SetDefault("database.driver", dc.Driver)
	v.SetDefault("database.host", dc.Host)
	v.SetDefault("database.port", dc.Port)
	v.SetDefault("database.user", dc.User)
	v.SetDefault("database.password", dc.Password)
	v.SetDefault("database.dbname", dc.DBName)
	v.SetDefault("database.sslmode", dc.SSLMode)
	v.SetDefault("database.timezone", dc.Timezone)
	v.SetDefault("database.path", "")
	v.SetDefault("database.maxidleconns", dc.MaxIdleConns)
	v.SetDefault("database.maxopenconns", dc.MaxOpenConns)
	v.SetDefault("database.connmaxlifetime", dc.ConnMaxLifetime)
	v.SetDefault("database.loglevel", dc.LogLevel)
	v.SetDefault("database.slowthreshold", dc.SlowThreshold)
	v.SetDefault("database.automigrate", dc.AutoMigrate)

	rc := redis.DefaultConfig()
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addrs", rc.Addrs)
	v.SetDefault("redis.master_name", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", rc.PoolSize)
	v.SetDefault("redis.min_idle_conns", rc.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rc.DialTimeout)
	v.SetDefault("redis.read_timeout", rc.ReadTimeout)
	v.SetDefault("redis.write_timeout", rc.WriteTimeout)
	v.SetDefault("redis.max_retries", rc.MaxRetries)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_duration", 24*time.Hour)

	llmc := llm.DefaultConfig()
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", llmc.Model)
	v.SetDefault("llm.max_tokens", llmc.MaxTokens)
	v.SetDefault("llm.temperature", llmc.Temperature)
	v.SetDefault("llm.timeout", llmc.Timeout)
	v.SetDefault("llm.json_mode", llmc.JSONMode)
	v.SetDefault("llm.digest_tokens", 60)
	v.SetDefault("llm.roadmap_max_tokens", 4000)
	v.SetDefault("llm.summary_max_tokens", 200)
	v.SetDefault("llm.excerpt_chars", 500)
	v.SetDefault("llm.roadmap_timeout", 90*time.Second)
	v.SetDefault("llm.summary_timeout", 20*time.Second)

	v.SetDefault("search.provider.id", string(types.ProviderDuckDuckGo))
	v.SetDefault("search.provider.name", "DuckDuckGo")
	v.SetDefault("search.provider.api_host", "https://api.duckduckgo.com")
	v.SetDefault("search.provider.api_key", "")
	v.SetDefault("search.provider.basic_auth_username", "")
	v.SetDefault("search.provider.basic_auth_password", "")
	v.SetDefault("search.provider.timeout", 10)
	v.SetDefault("search.provider.max_retries", 2)
	v.SetDefault("search.provider.rate_limit", 1.0)
	v.SetDefault("search.provider.user_agent", research.DefaultUserAgent)
	v.SetDefault("search.min_results", 3)
	v.SetDefault("search.timeout", 10*time.Second)

	fc := research.DefaultFetcherConfig()
	v.SetDefault("fetcher.timeout", fc.Timeout)
	v.SetDefault("fetcher.max_redirects", fc.MaxRedirects)
	v.SetDefault("fetcher.user_agent", fc.UserAgent)
	v.SetDefault("fetcher.max_body_bytes", fc.MaxBodyBytes)
	v.SetDefault("fetcher.min_content_length", fc.MinContentLength)
	v.SetDefault("fetcher.max_content_length", fc.MaxContentLength)
	v.SetDefault("fetcher.max_headings", fc.MaxHeadings)
	v.SetDefault("fetcher.summary_input_chars", fc.SummaryInputChars)

	rk := research.DefaultRankingConfig()
	v.SetDefault("ranking.word_count_threshold", rk.WordCountThreshold)
	v.SetDefault("ranking.word_count_boost", rk.WordCountBoost)
	v.SetDefault("ranking.heading_threshold", rk.HeadingThreshold)
	v.SetDefault("ranking.heading_boost", rk.HeadingBoost)
	v.SetDefault("ranking.summary_length_threshold", rk.SummaryLengthThreshold)
	v.SetDefault("ranking.summary_boost", rk.SummaryBoost)
	v.SetDefault("ranking.trusted_domain_boost", rk.TrustedDomainBoost)
	v.SetDefault("ranking.trusted_domains", rk.TrustedDomains)

	pc := research.DefaultPipelineConfig()
	v.SetDefault("pipeline.search_limit", pc.SearchLimit)
	v.SetDefault("pipeline.scrape_top_n", pc.ScrapeTopN)
	v.SetDefault("pipeline.scrape_concurrency", pc.ScrapeConcurrency)
	v.SetDefault("pipeline.min_summary_length", pc.MinSummaryLength)
	v.SetDefault("pipeline.max_sources", pc.MaxSources)
	v.SetDefault("pipeline.max_persisted_steps", pc.MaxPersistedSteps)
	v.SetDefault("pipeline.web_phase_timeout", pc.WebPhaseTimeout)
	v.SetDefault("pipeline.dedupe_generation", false)
	// 0 表示按生成时长推导
	v.SetDefault("pipeline.lock_ttl", time.Duration(0))
	v.SetDefault("pipeline.analyzer_search_limit", 8)

	v.SetDefault("ratelimit.enabled", true)
	setRateLimitDefaults(v, "generate", middleware.GenerationRateLimit)
	setRateLimitDefaults(v, "search", middleware.SearchRateLimit)
	setRateLimitDefaults(v, "scrape", middleware.ScrapeRateLimit)
	setRateLimitDefaults(v, "analyze", middleware.AnalyzeRateLimit)
	setRateLimitDefaults(v, "compare", middleware.CompareRateLimit)
}

func setRateLimitDefaults(v *viper.Viper, name string, rl middleware.RateLimiterConfig) {
	prefix := "ratelimit." + name + "."
	v.SetDefault(prefix+"scope", rl.Scope)
	v.SetDefault(prefix+"max_requests", rl.MaxRequests)
	v.SetDefault(prefix+"window", rl.Window)
	v.SetDefault(prefix+"strategy", rl.Strategy)
}
