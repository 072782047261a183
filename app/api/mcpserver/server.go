// Package mcpserver exposes the parser as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"spacyserver/app/service/parser"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "spacyserver"
	serverVersion = "1.0.0"
	ToolParseText = "parse_text"
)

type Server struct {
	parserSvc *parser.Service
	mcp       *server.MCPServer
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		parserSvc: do.MustInvoke[*parser.Service](di),
		mcp: server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	s.mcp.AddTool(
		mcp.NewTool(ToolParseText,
			mcp.WithDescription("Tokenize, tag, parse and annotate English text. Returns tokens, noun chunks, "+
				"named entities, coreference clusters and aligned AMR graphs as JSON."),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to analyze"),
			),
		),
		s.parseText,
	)

	return s, nil
}

func (s *Server) parseText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.parserSvc.Parse(ctx, text)
	if err != nil {
		slog.Error("MCP parse failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(data)), nil
}

// Run serves MCP over stdin/stdout until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("MCP server listening on stdio")

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
