package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerConnectionTools() {
	// ── connect_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_blocks",
		mcp.WithDescription("Connect the output of one block to the input of another. Self-connections and duplicates are ignored."),
		mcp.WithNumber("from", mcp.Description("Source block ID"), mcp.Required()),
		mcp.WithNumber("to", mcp.Description("Target block ID"), mcp.Required()),
	), s.handleConnectBlocks)

	// ── list_connections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List every connection as from/to block id pairs"),
	), s.handleListConnections)
}

func (s *Server) handleConnectBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	from, err := blockIDArg(args, "from")
	if err != nil {
		return nil, err
	}
	to, err := blockIDArg(args, "to")
	if err != nil {
		return nil, err
	}

	created, err := s.editor.Connect(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if !created {
		return textResult(fmt.Sprintf("No connection added: %d -> %d is a self-connection or already exists", from, to)), nil
	}
	s.emitFlowChanged(ctx, "connect_blocks")
	return textResult(fmt.Sprintf("Connected %d -> %d", from, to)), nil
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.editor.Connections())
}
