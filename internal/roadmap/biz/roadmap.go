package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/redis"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"go.uber.org/zap"
)

// RoadmapRepo 路线图仓储接口，每个用户一条记录
type RoadmapRepo interface {
	Upsert(ctx context.Context, roadmap *research.Roadmap) (*research.Roadmap, error)
	GetByUserID(ctx context.Context, userID string) (*research.Roadmap, error)
}

// Pipeline is the research pipeline the use case drives.
type Pipeline interface {
	GenerateComprehensiveRoadmap(ctx context.Context, userID, topic string, opts research.Options) *research.ComprehensiveRoadmapResult
	PerformWebSearch(ctx context.Context, query string, limit int) []research.SearchResult
	ScrapeAndSummarize(ctx context.Context, url, title string) research.ScrapeOutcome
}

// Analyzer runs topic analysis and resource comparison.
type Analyzer interface {
	AnalyzeTopic(ctx context.Context, topic, depth string) (*research.TopicAnalysis, error)
	CompareResources(ctx context.Context, topic string, urls []string) (*research.ResourceComparison, error)
}

// Locker serializes work on a key across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, expiration time.Duration, fn func() error) error
}

// Config 用例配置
type Config struct {
	DedupeGeneration bool
	LockTTL          time.Duration
}

// RoadmapUseCase 路线图业务逻辑
type RoadmapUseCase struct {
	repo     RoadmapRepo
	pipeline Pipeline
	analyzer Analyzer
	locker   Locker
	config   Config
	logger   *logger.Logger
}

// NewRoadmapUseCase 创建路线图用例。locker 为 nil 时不做并发去重
func NewRoadmapUseCase(repo RoadmapRepo, pipeline Pipeline, analyzer Analyzer, locker Locker, cfg Config, log *logger.Logger) *RoadmapUseCase {
	if log == nil {
		log = logger.L()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 3 * time.Minute
	}
	return &RoadmapUseCase{
		repo:     repo,
		pipeline: pipeline,
		analyzer: analyzer,
		locker:   locker,
		config:   cfg,
		logger:   log.Named("roadmap"),
	}
}

func generationLockKey(userID string) string {
	return "roadmap:generate:" + userID
}

// GenerateRoadmap 生成并保存用户的学习路线图。校验失败以外的情况总是返回结果
func (uc *RoadmapUseCase) GenerateRoadmap(ctx context.Context, userID string, req *GenerateRoadmapRequest) (*research.ComprehensiveRoadmapResult, error) {
	topic, opts, err := req.Validate()
	if err != nil {
		return nil, err
	}

	var result *research.ComprehensiveRoadmapResult
	generate := func() error {
		result = uc.pipeline.GenerateComprehensiveRoadmap(ctx, userID, topic, opts)
		return nil
	}

	if !uc.config.DedupeGeneration || uc.locker == nil {
		_ = generate()
		return result, nil
	}

	err = uc.locker.WithLock(ctx, generationLockKey(userID), uc.config.LockTTL, generate)
	switch {
	case errors.Is(err, redis.ErrLockNotAcquired):
		return nil, ErrGenerationInProgress
	case err != nil:
		// 锁服务不可用时不阻塞生成
		uc.logger.WithContext(ctx).Warn("generation lock unavailable, generating without it",
			zap.String("user_id", userID), zap.Error(err))
		_ = generate()
	}
	return result, nil
}

// GetRoadmap 获取用户已保存的路线图
func (uc *RoadmapUseCase) GetRoadmap(ctx context.Context, userID string) (*research.Roadmap, error) {
	roadmap, err := uc.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRoadmapNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get roadmap: %w", err)
	}
	return roadmap, nil
}

// Search 执行网络搜索
func (uc *RoadmapUseCase) Search(ctx context.Context, req *SearchRequest) ([]research.SearchResult, error) {
	query, limit, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return uc.pipeline.PerformWebSearch(ctx, query, limit), nil
}

// Scrape 抓取并总结单个页面，失败时返回降级内容而不是错误
func (uc *RoadmapUseCase) Scrape(ctx context.Context, req *ScrapeRequest) (*research.ScrapedContent, error) {
	u, title, err := req.Validate()
	if err != nil {
		return nil, err
	}
	content := uc.pipeline.ScrapeAndSummarize(ctx, u, title).Scraped()
	return &content, nil
}

// AnalyzeTopic 主题分析
func (uc *RoadmapUseCase) AnalyzeTopic(ctx context.Context, req *AnalyzeRequest) (*research.TopicAnalysis, error) {
	topic, depth, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return uc.analyzer.AnalyzeTopic(ctx, topic, depth)
}

// CompareResources 资源对比
func (uc *RoadmapUseCase) CompareResources(ctx context.Context, req *CompareRequest) (*research.ResourceComparison, error) {
	topic, urls, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return uc.analyzer.CompareResources(ctx, topic, urls)
}
