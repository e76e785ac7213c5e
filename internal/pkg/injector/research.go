package injector

import (
	"fmt"

	"github.com/lk2023060901/microlearn-backend/internal/conf"
	"github.com/lk2023060901/microlearn-backend/internal/llm"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"github.com/lk2023060901/microlearn-backend/internal/websearch/provider"
)

// ResearchStack 研究流程的全部组件，HTTP 服务和命令行共用
type ResearchStack struct {
	LLM          llm.Client
	Searcher     *research.Searcher
	Fetcher      *research.Fetcher
	Ranker       *research.Ranker
	Engine       *research.Engine
	Orchestrator *research.Orchestrator
	Analyzer     *research.Analyzer
}

// NewResearchStack 按配置组装研究组件。store 为 nil 时生成结果不落库
func NewResearchStack(config *conf.Config, store research.Store, log *logger.Logger) (*ResearchStack, error) {
	client, err := provideLLMClient(config, log)
	if err != nil {
		return nil, err
	}

	searchProvider, err := provider.NewFactory().Create(&config.Search.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create search provider: %w", err)
	}

	ranker, err := research.NewRanker(config.Ranking)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking config: %w", err)
	}

	tokens := llm.NewTokenCounter(config.LLM.Model)
	engine := research.NewEngine(client, tokens, config.LLM.Synthesis(config.Pipeline.MaxSources), log)
	searcher := research.NewSearcher(searchProvider, research.DefaultCuratedTable(), config.Search.Searcher(), log)
	fetcher := research.NewFetcher(config.Fetcher.Fetcher(), engine, log)

	return &ResearchStack{
		LLM:          client,
		Searcher:     searcher,
		Fetcher:      fetcher,
		Ranker:       ranker,
		Engine:       engine,
		Orchestrator: research.NewOrchestrator(searcher, fetcher, ranker, engine, store, config.Pipeline.PipelineConfig, log),
		Analyzer:     research.NewAnalyzer(searcher, fetcher, engine, config.Pipeline.Analyzer(), log),
	}, nil
}

func provideLLMClient(config *conf.Config, log *logger.Logger) (llm.Client, error) {
	if !config.LLM.Enabled() {
		log.Warn("llm api key not configured, summaries and roadmaps use fallback paths")
		return llm.Disabled{}, nil
	}
	client, err := llm.NewOpenAIClient(&config.LLM.Config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return client, nil
}
