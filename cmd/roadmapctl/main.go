// Command roadmapctl runs the research pipeline from the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lk2023060901/microlearn-backend/internal/conf"
	"github.com/lk2023060901/microlearn-backend/internal/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "roadmapctl",
	Short: "Research topics and generate learning roadmaps",
	Long: `roadmapctl drives the same research pipeline the HTTP server uses:
web search with curated fallback, page scraping and summarization,
topic analysis, resource comparison and roadmap generation.

Results are written to stdout as JSON; logs go to stderr.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and MICROLEARN_* env when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// setup loads configuration and a stderr logger.
func setup() (*conf.Config, *logger.Logger, error) {
	config, err := conf.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	logCfg := config.Log
	logCfg.Output = "stderr"
	logCfg.Format = "console"
	logCfg.EnableStacktrace = false
	if verbose {
		logCfg.Level = "debug"
	} else if logCfg.Level == "info" || logCfg.Level == "debug" {
		logCfg.Level = "warn"
	}

	log, err := logger.New(&logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return config, log, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
