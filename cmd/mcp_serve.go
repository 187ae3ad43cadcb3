package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"debuggenie/internal/mcp"
	"debuggenie/internal/ranker"
)

var mcpWorkspace string

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Start an MCP server over stdio",
	Long: `Start a Model Context Protocol (MCP) server that exposes the debugger
to editors and other MCP-compatible agents.

The server provides tools for:
  - Running a full error analysis (debug_error)
  - Ranking candidate solutions (rank_solutions)
  - Browsing saved reports (recent_reports, get_report)

Logs go to stderr; stdout carries the protocol.`,
	Example: `  # Start the server
  debuggenie mcp-serve --workspace ~/src/app

  # List the tools manually (JSON-RPC via stdin)
  echo '{"jsonrpc":"2.0","method":"tools/list","id":1}' | debuggenie mcp-serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := mcpWorkspace
		if root == "" {
			root, _ = os.Getwd()
		}

		s := &mcp.Server{
			Debugger: newOrchestrator(root, nil),
			Logger:   logger,
		}
		if db, err := openArchive(); err != nil {
			logger.Warn("report archive unavailable", zap.Error(err))
		} else {
			defer db.Close()
			s.DB = db
		}
		s.Ranker = ranker.Ranker{}

		logger.Info("mcp server starting", zap.String("workspace", root))
		return s.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpServeCmd)
	mcpServeCmd.Flags().StringVarP(&mcpWorkspace, "workspace", "w", "", "Project root the code agent may inspect (default: current directory)")
}
