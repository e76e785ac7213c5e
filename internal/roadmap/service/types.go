package service

import "github.com/lk2023060901/microlearn-backend/internal/research"

// GenerateRoadmapRequest 生成路线图请求
type GenerateRoadmapRequest struct {
	Topic            string `json:"topic"`
	Level            string `json:"level"`
	Timeframe        string `json:"timeframe"`
	DailyTimeMinutes int    `json:"dailyTimeMinutes"`
	Focus            string `json:"focus"`
	IncludeProjects  *bool  `json:"includeProjects"`
}

// SearchRequest 网络搜索请求
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// ScrapeRequest 页面抓取请求
type ScrapeRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// AnalyzeRequest 主题分析请求
type AnalyzeRequest struct {
	Topic string `json:"topic"`
	Depth string `json:"depth"`
}

// CompareRequest 资源对比请求
type CompareRequest struct {
	Topic string   `json:"topic"`
	URLs  []string `json:"urls"`
}

// SearchResponse 搜索响应
type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []research.SearchResult `json:"results"`
	Total   int                     `json:"total"`
}
