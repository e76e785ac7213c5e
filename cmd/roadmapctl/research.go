package main

import (
	"strings"

	"github.com/lk2023060901/microlearn-backend/internal/pkg/injector"
	roadmapbiz "github.com/lk2023060901/microlearn-backend/internal/roadmap/biz"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web for learning resources",
	Long: `Search queries the configured provider. When the provider fails or
returns too few results, curated resources for the topic are used instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		req := &roadmapbiz.SearchRequest{Query: strings.Join(args, " "), Limit: limit}
		query, limit, err := req.Validate()
		if err != nil {
			return err
		}

		config, log, err := setup()
		if err != nil {
			return err
		}
		stack, err := injector.NewResearchStack(config, nil, log)
		if err != nil {
			return err
		}

		return printJSON(stack.Orchestrator.PerformWebSearch(cmd.Context(), query, limit))
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape and summarize one page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		req := &roadmapbiz.ScrapeRequest{URL: args[0], Title: title}
		rawURL, title, err := req.Validate()
		if err != nil {
			return err
		}

		config, log, err := setup()
		if err != nil {
			return err
		}
		stack, err := injector.NewResearchStack(config, nil, log)
		if err != nil {
			return err
		}

		return printJSON(stack.Orchestrator.ScrapeAndSummarize(cmd.Context(), rawURL, title).Scraped())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <topic>",
	Short: "Analyze a topic from live search results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth, _ := cmd.Flags().GetString("depth")
		req := &roadmapbiz.AnalyzeRequest{Topic: strings.Join(args, " "), Depth: depth}
		topic, depth, err := req.Validate()
		if err != nil {
			return err
		}

		config, log, err := setup()
		if err != nil {
			return err
		}
		stack, err := injector.NewResearchStack(config, nil, log)
		if err != nil {
			return err
		}

		analysis, err := stack.Analyzer.AnalyzeTopic(cmd.Context(), topic, depth)
		if err != nil {
			return err
		}
		return printJSON(analysis)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <url> <url> [url...]",
	Short: "Compare two to five resources for a topic",
	Args:  cobra.RangeArgs(2, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		req := &roadmapbiz.CompareRequest{Topic: topic, URLs: args}
		topic, urls, err := req.Validate()
		if err != nil {
			return err
		}

		config, log, err := setup()
		if err != nil {
			return err
		}
		stack, err := injector.NewResearchStack(config, nil, log)
		if err != nil {
			return err
		}

		comparison, err := stack.Analyzer.CompareResources(cmd.Context(), topic, urls)
		if err != nil {
			return err
		}
		return printJSON(comparison)
	},
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results (1-20, default 10)")
	scrapeCmd.Flags().String("title", "", "title to use when the page has none")
	analyzeCmd.Flags().String("depth", "detailed", "analysis depth: basic, detailed or comprehensive")
	compareCmd.Flags().String("topic", "", "topic the resources are compared for")
	_ = compareCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(searchCmd, scrapeCmd, analyzeCmd, compareCmd)
}
