package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"debuggenie/internal/llm"
	"debuggenie/internal/models"
	"debuggenie/internal/storage"
)

const defaultReportLimit = 10

func (s *Server) registerDebugTool(srv *server.MCPServer) {
	tool := mcp.NewTool("debug_error",
		mcp.WithDescription("Analyze an error with web research, codebase inspection and optional screenshot analysis. Returns the root cause and ranked solutions."),
		mcp.WithString("error_text",
			mcp.Required(),
			mcp.Description("The error message or stack trace"),
		),
		mcp.WithString("code_context",
			mcp.Description("Code snippet related to the error"),
		),
		mcp.WithString("image_path",
			mcp.Description("Path to a screenshot of the error"),
		),
		mcp.WithString("type",
			mcp.Description("Where the error was captured: ide, terminal, console or general"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Archive the report for later lookup (default: true)"),
		),
	)

	srv.AddTool(tool, s.debugHandler)
}

func (s *Server) debugHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	errorText, err := req.RequireString("error_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.Debugger == nil {
		return mcp.NewToolResultError("debugger not configured"), nil
	}

	ec := models.ErrorContext{
		ErrorText:   errorText,
		CodeContext: req.GetString("code_context", ""),
		ImagePath:   req.GetString("image_path", ""),
		Type:        models.ParseContextType(req.GetString("type", "")),
	}
	result := s.Debugger.Debug(ctx, ec)

	out := map[string]any{"result": result}
	if s.DB != nil && req.GetBool("save", true) {
		report := storage.NewReport(ec, result)
		if seen, err := storage.CountBySignature(s.DB, report.Signature); err == nil {
			out["previous_occurrences"] = seen
		}
		if err := storage.SaveReport(s.DB, report); err != nil {
			s.Logger.Warn("save report failed", zap.String("id", report.ID), zap.Error(err))
		} else {
			out["report_id"] = report.ID
		}
	}
	return jsonResult(out)
}

func (s *Server) registerRankTool(srv *server.MCPServer) {
	tool := mcp.NewTool("rank_solutions",
		mcp.WithDescription("Deduplicate and rank candidate solutions by confidence, simplicity, historical success, recency and source consensus."),
		mcp.WithString("solutions",
			mcp.Required(),
			mcp.Description(`JSON array of candidates: [{"title": "...", "steps": [...], "confidence": 0.8, "votes": 10, "date": "2024", "sources": [...]}]`),
		),
	)

	srv.AddTool(tool, s.rankHandler)
}

func (s *Server) rankHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("solutions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var candidates []map[string]any
	if err := llm.ExtractInto(raw, &candidates); err != nil {
		return mcp.NewToolResultError("solutions must be a JSON array of objects: " + err.Error()), nil
	}
	return jsonResult(s.Ranker.RankAndFilter(candidates))
}

func (s *Server) registerRecentReportsTool(srv *server.MCPServer) {
	tool := mcp.NewTool("recent_reports",
		mcp.WithDescription("List recently archived debug reports, newest first."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of reports (default: %d)", defaultReportLimit)),
		),
	)

	srv.AddTool(tool, s.recentReportsHandler)
}

func (s *Server) recentReportsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.DB == nil {
		return mcp.NewToolResultError("report archive not available"), nil
	}
	limit := req.GetInt("limit", defaultReportLimit)
	if limit <= 0 {
		limit = defaultReportLimit
	}

	items, err := storage.RecentReports(s.DB, limit)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if items == nil {
		items = []storage.Summary{}
	}
	return jsonResult(map[string]any{"reports": items, "count": len(items)})
}

func (s *Server) registerGetReportTool(srv *server.MCPServer) {
	tool := mcp.NewTool("get_report",
		mcp.WithDescription("Fetch one archived debug report by id or id prefix."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Report id as listed by recent_reports"),
		),
	)

	srv.AddTool(tool, s.getReportHandler)
}

func (s *Server) getReportHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.DB == nil {
		return mcp.NewToolResultError("report archive not available"), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := storage.GetReport(s.DB, id)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if report == nil {
		return mcp.NewToolResultError("report not found: " + id), nil
	}
	return jsonResult(report)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
