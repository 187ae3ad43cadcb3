package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"debuggenie/internal/config"
	"debuggenie/internal/logging"
	"debuggenie/internal/storage"
)

var (
	configPath string
	logLevel   string

	appCfg *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "debuggenie",
	Short: "Multi-agent error debugger",
	Long: `debuggenie analyzes an error message, stack trace or screenshot with a
team of agents: web research, codebase inspection and visual analysis run
in parallel, a synthesis model merges their findings, and the proposed
solutions are deduplicated and ranked.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		l, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		appCfg = cfg
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// openArchive opens the report archive in the configured data directory.
func openArchive() (*sql.DB, error) {
	db, err := storage.InitDB(appCfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}
	return db, nil
}
