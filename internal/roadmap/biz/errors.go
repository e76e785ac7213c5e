package biz

import "errors"

var (
	// ErrTopicRequired 学习主题必填
	ErrTopicRequired = errors.New("topic is required")

	// ErrTopicTooLong 学习主题过长
	ErrTopicTooLong = errors.New("topic must be at most 200 characters")

	// ErrInvalidLevel 难度等级无效
	ErrInvalidLevel = errors.New("level must be one of beginner, intermediate, advanced")

	// ErrInvalidTimeframe 时间范围格式错误
	ErrInvalidTimeframe = errors.New("timeframe must look like 4-weeks, 10-days or 2-months")

	// ErrInvalidDailyTime 每日学习时长超出范围
	ErrInvalidDailyTime = errors.New("dailyTimeMinutes must be between 5 and 480")

	// ErrInvalidFocus 学习侧重点无效
	ErrInvalidFocus = errors.New("focus must be one of balanced, theory, practice, projects")

	// ErrInvalidDepth 分析深度无效
	ErrInvalidDepth = errors.New("depth must be one of basic, detailed, comprehensive")

	// ErrQueryRequired 搜索关键词必填
	ErrQueryRequired = errors.New("query is required")

	// ErrInvalidLimit 搜索数量超出范围
	ErrInvalidLimit = errors.New("limit must be between 1 and 20")

	// ErrURLRequired 资源地址必填
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidURL 资源地址不是合法的 http(s) URL
	ErrInvalidURL = errors.New("url must be an absolute http or https url")

	// ErrCompareURLCount 对比资源数量超出范围
	ErrCompareURLCount = errors.New("between 2 and 5 urls are required")

	// ErrRoadmapNotFound 路线图不存在
	ErrRoadmapNotFound = errors.New("roadmap not found")

	// ErrGenerationInProgress 同一用户已有生成任务在执行
	ErrGenerationInProgress = errors.New("roadmap generation already in progress")
)
