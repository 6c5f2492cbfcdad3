package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/boardctl/internal/config"
	"github.com/kayz/boardctl/internal/logger"
)

var (
	logLevel string
	apiURL   string
	apiToken string
)

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "Board dashboard onboarding companion",
	Long: `boardctl drives the board dashboard's lead-agent onboarding
dialogue from the terminal or a local web panel.

Commands:
  boardctl onboard <board-id>   Run the onboarding dialogue interactively
  boardctl web <board-id>       Serve the onboarding panel in a browser
  boardctl boards               List boards`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Dashboard API base URL (overrides config and BOARDCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "",
		"Dashboard API bearer token (overrides config and BOARDCTL_TOKEN)")
}

// loadConfig layers the runtime config: flag > environment > config file.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("[Config] load failed, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}

	if env := os.Getenv("BOARDCTL_API_URL"); env != "" {
		cfg.API.BaseURL = env
	}
	if env := os.Getenv("BOARDCTL_TOKEN"); env != "" {
		cfg.API.Token = env
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if apiToken != "" {
		cfg.API.Token = apiToken
	}

	if cfg.Logging.File != "" {
		if err := logger.SetFile(cfg.Logging.File); err != nil {
			logger.Warn("[Config] log file unavailable: %v", err)
		}
	}

	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
