package research

import "fmt"

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"

	FocusBalanced = "balanced"
	FocusTheory   = "theory"
	FocusPractice = "practice"
	FocusProjects = "projects"

	DepthBasic         = "basic"
	DepthDetailed      = "detailed"
	DepthComprehensive = "comprehensive"

	DefaultTimeframe        = "4-weeks"
	DefaultDailyTimeMinutes = 30
)

// Levels, Focuses and Depths list the accepted enum values.
var (
	Levels  = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
	Focuses = []string{FocusBalanced, FocusTheory, FocusPractice, FocusProjects}
	Depths  = []string{DepthBasic, DepthDetailed, DepthComprehensive}
)

// Options are the learner preferences for a roadmap.
type Options struct {
	Level            string `json:"level"`
	Timeframe        string `json:"timeframe"`
	DailyTimeMinutes int    `json:"dailyTimeMinutes"`
	Focus            string `json:"focus"`
	IncludeProjects  bool   `json:"includeProjects"`
}

// WithDefaults fills zero values. It does not validate.
func (o Options) WithDefaults() Options {
	if o.Level == "" {
		o.Level = LevelBeginner
	}
	if o.Timeframe == "" {
		o.Timeframe = DefaultTimeframe
	}
	if o.DailyTimeMinutes <= 0 {
		o.DailyTimeMinutes = DefaultDailyTimeMinutes
	}
	if o.Focus == "" {
		o.Focus = FocusBalanced
	}
	return o
}

func (o Options) defaultDuration() string {
	return fmt.Sprintf("%d minutes", o.DailyTimeMinutes)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
