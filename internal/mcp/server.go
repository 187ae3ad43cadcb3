// Package mcp exposes the debugger to MCP clients over stdio, so editors
// and agents can request an analysis, rank their own candidate fixes or
// browse archived reports.
package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"debuggenie/internal/models"
	"debuggenie/internal/ranker"
)

const (
	serverName    = "debuggenie"
	serverVersion = "1.0.0"
)

// Debugger runs one full analysis.
type Debugger interface {
	Debug(ctx context.Context, ec models.ErrorContext) models.DebugResult
}

// Server holds the collaborators the tool handlers need. DB may be nil, in
// which case the archive tools report an error and debug results are not
// saved.
type Server struct {
	Debugger Debugger
	DB       *sql.DB
	Ranker   ranker.Ranker
	Logger   *zap.Logger
}

// NewMCPServer registers every tool on a fresh MCP server.
func (s *Server) NewMCPServer() *server.MCPServer {
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	srv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.registerDebugTool(srv)
	s.registerRankTool(srv)
	s.registerRecentReportsTool(srv)
	s.registerGetReportTool(srv)

	return srv
}

// Serve runs the server on stdin and stdout until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.NewMCPServer())
}
