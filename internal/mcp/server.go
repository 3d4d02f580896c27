package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"

	"flowboard/internal/domain"
	"flowboard/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for flowboard.
// It exposes tools, resources, and prompts so AI agents can edit the flow.
type Server struct {
	mcp      *server.MCPServer
	editor   *service.Editor
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine
}

// Deps holds all dependencies passed from the host to the MCP server.
type Deps struct {
	Editor      *service.Editor
	Emitter     EventEmitter
	Approvals   ApprovalBackend // When set, approvals are stored for another process (standalone mode)
	AutoApprove bool            // Skip approval for destructive tools
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	if deps.Emitter == nil {
		deps.Emitter = nopEmitter{}
	}
	approval := NewApprovalQueue(deps.Emitter, deps.Approvals)
	approval.SetAutoApprove(deps.AutoApprove)

	s := &Server{
		editor:   deps.Editor,
		emitter:  deps.Emitter,
		approval: approval,
		layout:   NewLayoutEngine(),
	}

	s.mcp = server.NewMCPServer(
		"flowboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerBlockTools()
	s.registerConnectionTools()
	s.registerFlowTools()
	s.registerSnapshotTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) {}

// ── Helpers ────────────────────────────────────────────────

// emitFlowChanged tells the frontend an agent edited the flow.
func (s *Server) emitFlowChanged(ctx context.Context, tool string) {
	s.emitter.Emit(ctx, "mcp:flow-changed", map[string]string{"tool": tool})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// blockIDArg reads a block id. Agents send it as a number or a string.
func blockIDArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) >= 1<<53 {
			return 0, fmt.Errorf("%s must be a whole block id, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a block id, got %q", key, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%s is required", key)
}

// stringArg returns the string at key and whether it was provided.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

// pointArg returns (x, y) when both are provided.
func pointArg(args map[string]any) (*domain.Point, bool) {
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return nil, false
	}
	return &domain.Point{X: x, Y: y}, true
}

// getBlockForTool retrieves a block and validates it exists.
func (s *Server) getBlockForTool(args map[string]any) (domain.Block, error) {
	id, err := blockIDArg(args, "blockId")
	if err != nil {
		return domain.Block{}, err
	}
	b, ok := s.editor.Block(id)
	if !ok {
		return domain.Block{}, fmt.Errorf("block %d not found", id)
	}
	return b, nil
}
