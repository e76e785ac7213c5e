package main

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/microlearn-backend/internal/data"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/injector"
	"github.com/lk2023060901/microlearn-backend/internal/research"
	roadmapbiz "github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"
	roadmapdata "github.com/lk2023060901/microlearn-backend/internal/roadmap/data"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a learning roadmap",
	Long: `Generate runs the full pipeline: search, scrape, rank and synthesize.
If research fails it falls back to an LLM-only roadmap and then to a
static skeleton, so a roadmap is always printed.

With --persist the roadmap is saved for --user in the configured database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		level, _ := flags.GetString("level")
		timeframe, _ := flags.GetString("timeframe")
		daily, _ := flags.GetInt("daily-minutes")
		focus, _ := flags.GetString("focus")
		projects, _ := flags.GetBool("projects")
		persist, _ := flags.GetBool("persist")
		userID, _ := flags.GetString("user")

		req := &roadmapbiz.GenerateRoadmapRequest{
			Topic:            strings.Join(args, " "),
			Level:            level,
			Timeframe:        timeframe,
			DailyTimeMinutes: daily,
			Focus:            focus,
			IncludeProjects:  &projects,
		}
		topic, opts, err := req.Validate()
		if err != nil {
			return err
		}
		if persist && userID == "" {
			return fmt.Errorf("--user is required with --persist")
		}

		config, log, err := setup()
		if err != nil {
			return err
		}

		var store research.Store
		if persist {
			d, cleanup, err := data.NewData(config, log)
			if err != nil {
				return err
			}
			defer cleanup()
			store = roadmapdata.NewRoadmapRepo(d.DB)
		}

		stack, err := injector.NewResearchStack(config, store, log)
		if err != nil {
			return err
		}

		result := stack.Orchestrator.GenerateComprehensiveRoadmap(cmd.Context(), userID, topic, opts)
		return printJSON(result)
	},
}

func init() {
	f := generateCmd.Flags()
	f.String("level", research.LevelBeginner, "beginner, intermediate or advanced")
	f.String("timeframe", research.DefaultTimeframe, "e.g. 2-weeks, 10-days, 3-months")
	f.Int("daily-minutes", research.DefaultDailyTimeMinutes, "study time per day")
	f.String("focus", research.FocusBalanced, "balanced, theory, practice or projects")
	f.Bool("projects", true, "include project steps")
	f.Bool("persist", false, "save the roadmap to the database")
	f.String("user", "", "user id the roadmap belongs to")

	rootCmd.AddCommand(generateCmd)
}
