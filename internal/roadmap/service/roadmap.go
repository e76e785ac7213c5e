package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/microlearn-backend/internal/pkg/errors"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/response"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	"github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"
	"go.uber.org/zap"
)

// RoadmapService 路线图与研究接口
type RoadmapService struct {
	uc     *biz.RoadmapUseCase
	logger *logger.Logger
}

// NewRoadmapService 创建路线图服务
func NewRoadmapService(uc *biz.RoadmapUseCase, logger *logger.Logger) *RoadmapService {
	return &RoadmapService{
		uc:     uc,
		logger: logger,
	}
}

// GenerateRoadmap 生成综合学习路线图
func (s *RoadmapService) GenerateRoadmap(c *gin.Context) {
	var req GenerateRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized, nil)
		return
	}

	result, err := s.uc.GenerateRoadmap(c.Request.Context(), userID, &biz.GenerateRoadmapRequest{
		Topic:            req.Topic,
		Level:            req.Level,
		Timeframe:        req.Timeframe,
		DailyTimeMinutes: req.DailyTimeMinutes,
		Focus:            req.Focus,
		IncludeProjects:  req.IncludeProjects,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, result)
}

// GetRoadmap 获取当前用户保存的路线图
func (s *RoadmapService) GetRoadmap(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized, nil)
		return
	}

	roadmap, err := s.uc.GetRoadmap(c.Request.Context(), userID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, roadmap)
}

// Search 网络搜索
func (s *RoadmapService) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
		return
	}

	results, err := s.uc.Search(c.Request.Context(), &biz.SearchRequest{Query: req.Query, Limit: req.Limit})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, &SearchResponse{Query: req.Query, Results: results, Total: len(results)})
}

// Scrape 抓取并总结页面
func (s *RoadmapService) Scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
		return
	}

	content, err := s.uc.Scrape(c.Request.Context(), &biz.ScrapeRequest{URL: req.URL, Title: req.Title})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, content)
}

// Analyze 主题分析
func (s *RoadmapService) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
		return
	}

	analysis, err := s.uc.AnalyzeTopic(c.Request.Context(), &biz.AnalyzeRequest{Topic: req.Topic, Depth: req.Depth})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, analysis)
}

// Compare 资源对比
func (s *RoadmapService) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
		return
	}

	comparison, err := s.uc.CompareResources(c.Request.Context(), &biz.CompareRequest{Topic: req.Topic, URLs: req.URLs})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, comparison)
}

// handleError 统一错误处理
func (s *RoadmapService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrTopicRequired), errors.Is(err, biz.ErrTopicTooLong):
		response.ErrorWithCode(c, apperrors.ErrRoadmapInvalidTopic, nil, err.Error())
	case errors.Is(err, biz.ErrInvalidLevel),
		errors.Is(err, biz.ErrInvalidTimeframe),
		errors.Is(err, biz.ErrInvalidDailyTime),
		errors.Is(err, biz.ErrInvalidFocus),
		errors.Is(err, biz.ErrInvalidDepth):
		response.ErrorWithCode(c, apperrors.ErrRoadmapInvalidOptions, nil, err.Error())
	case errors.Is(err, biz.ErrURLRequired),
		errors.Is(err, biz.ErrInvalidURL),
		errors.Is(err, biz.ErrCompareURLCount):
		response.ErrorWithCode(c, apperrors.ErrInvalidResourceURL, nil, err.Error())
	case errors.Is(err, biz.ErrQueryRequired), errors.Is(err, biz.ErrInvalidLimit):
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, nil, err.Error())
	case errors.Is(err, biz.ErrRoadmapNotFound):
		response.ErrorWithCode(c, apperrors.ErrRoadmapNotFound, nil)
	case errors.Is(err, biz.ErrGenerationInProgress):
		response.ErrorWithCode(c, apperrors.ErrGenerationInProgress, nil)
	case errors.Is(err, research.ErrInsufficientResources):
		response.ErrorWithCode(c, apperrors.ErrInsufficientResources, nil, err.Error())
	case errors.Is(err, research.ErrAnalysisUnavailable):
		response.ErrorWithCode(c, apperrors.ErrAnalysisUnavailable, nil)
	default:
		s.logger.WithContext(c.Request.Context()).Error("internal error", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrInternalServer, nil)
	}
}
