package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowboard/internal/domain"
	"flowboard/internal/geometry"
	"flowboard/internal/graph"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	// ── create_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_block",
		mcp.WithDescription("Create a new block on the canvas. Position is auto-calculated if not provided."),
		mcp.WithString("kind",
			mcp.Description("Block kind: intro, body, conclusion"),
			mcp.Required(),
		),
		mcp.WithString("title", mcp.Description("Title (optional, defaults to \"<KIND> <id>\")")),
		mcp.WithString("body", mcp.Description("Body text (optional)")),
		mcp.WithString("color", mcp.Description("Header color as #rrggbb (optional, defaults per kind)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
	), s.handleCreateBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Update the title, body and/or color of an existing block"),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title (optional)")),
		mcp.WithString("body", mcp.Description("New body (optional)")),
		mcp.WithString("color", mcp.Description("New header color (optional)")),
	), s.handleUpdateBlock)

	// ── rename_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_block",
		mcp.WithDescription("Change a block's title. Connection summaries of its neighbors follow."),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenameBlock)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks in creation order, optionally filtered by kind"),
		mcp.WithString("kind", mcp.Description("Filter by block kind (optional)")),
	), s.handleListBlocks)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a block and every connection touching it. Requires user approval."),
		mcp.WithNumber("blockId", mcp.Description("Block ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new world position on the canvas"),
		mcp.WithNumber("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveBlock)

	// ── create_chain ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_chain",
		mcp.WithDescription("Create several blocks at once and connect them in order. Pass a JSON array of {kind, title?, body?}."),
		mcp.WithString("blocks",
			mcp.Description("JSON array of block specs [{kind, title?, body?}, ...]"),
			mcp.Required(),
		),
	), s.handleCreateChain)

	// ── arrange_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_blocks",
		mcp.WithDescription("Auto-arrange all blocks in columns following the flow"),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
	), s.handleArrangeBlocks)
}

func boolPtr(v bool) *bool { return &v }

// blockSummary is the shape agents see for one block.
type blockSummary struct {
	ID        int          `json:"id"`
	Kind      string       `json:"kind"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Color     string       `json:"color"`
	Position  domain.Point `json:"position"`
	Summary   string       `json:"summary"`
	Connected bool         `json:"connected"`
}

func summarizeBlock(b domain.Block, view domain.NodeView) blockSummary {
	return blockSummary{
		ID:        b.ID,
		Kind:      string(b.Kind),
		Title:     b.Title,
		Body:      b.Body,
		Color:     b.Color.Hex(),
		Position:  b.Position,
		Summary:   view.Summary,
		Connected: view.Connected,
	}
}

func (s *Server) summaries(kind string) []blockSummary {
	state := s.editor.State()
	out := make([]blockSummary, 0, len(state.Blocks))
	for _, b := range state.Blocks {
		if kind != "" && string(b.Kind) != kind {
			continue
		}
		out = append(out, summarizeBlock(b, state.Views[b.ID]))
	}
	return out
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleCreateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kindArg, _ := stringArg(args, "kind")
	if kindArg == "" {
		return nil, fmt.Errorf("kind is required")
	}
	kind, err := domain.ParseBlockKind(kindArg)
	if err != nil {
		return nil, err
	}

	nb := graph.NewBlock{Kind: kind}
	if p, ok := pointArg(args); ok {
		nb.Position = p
	} else {
		p := s.layout.NextPosition(s.editor.Blocks())
		nb.Position = &p
	}
	if title, ok := stringArg(args, "title"); ok && title != "" {
		nb.Title = &title
	}
	if body, ok := stringArg(args, "body"); ok {
		nb.Body = &body
	}
	if c, ok := stringArg(args, "color"); ok && c != "" {
		color, err := domain.ParseColor(c)
		if err != nil {
			return nil, err
		}
		nb.Color = &color
	}

	b, err := s.editor.CreateBlock(ctx, nb)
	if err != nil {
		return nil, err
	}
	s.emitFlowChanged(ctx, "create_block")
	return jsonResult(summarizeBlock(b, domain.NodeView{Summary: geometry.NoConnections}))
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}

	var changed []string
	if title, ok := stringArg(args, "title"); ok && s.editor.RenameBlock(ctx, b.ID, title) {
		changed = append(changed, "title")
	}
	if body, ok := stringArg(args, "body"); ok && s.editor.SetBody(ctx, b.ID, body) {
		changed = append(changed, "body")
	}
	if c, ok := stringArg(args, "color"); ok {
		set, err := s.editor.SetColor(ctx, b.ID, c)
		if err != nil {
			return nil, err
		}
		if set {
			changed = append(changed, "color")
		}
	}

	if len(changed) == 0 {
		return textResult(fmt.Sprintf("Block %d unchanged", b.ID)), nil
	}
	s.emitFlowChanged(ctx, "update_block")
	return textResult(fmt.Sprintf("Updated %s of block %d", strings.Join(changed, ", "), b.ID)), nil
}

func (s *Server) handleRenameBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}
	title, ok := stringArg(args, "title")
	if !ok {
		return nil, fmt.Errorf("title is required")
	}
	s.editor.RenameBlock(ctx, b.ID, title)
	s.emitFlowChanged(ctx, "rename_block")
	return textResult(fmt.Sprintf("Block %d renamed to %q", b.ID, title)), nil
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, _ := stringArg(req.GetArguments(), "kind")
	if kind != "" {
		k, err := domain.ParseBlockKind(kind)
		if err != nil {
			return nil, err
		}
		kind = string(k)
	}
	return jsonResult(s.summaries(kind))
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.getBlockForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}

	if err := s.approval.Request(ctx, "delete_block",
		fmt.Sprintf("Delete block %d %q and its connections", b.ID, b.Title), b.ID); err != nil {
		return nil, err
	}

	if !s.editor.DeleteBlock(ctx, b.ID) {
		return nil, fmt.Errorf("block %d not found", b.ID)
	}
	s.emitFlowChanged(ctx, "delete_block")
	return textResult(fmt.Sprintf("Deleted block %d", b.ID)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	b, err := s.getBlockForTool(args)
	if err != nil {
		return nil, err
	}
	p, ok := pointArg(args)
	if !ok {
		return nil, fmt.Errorf("x and y are required")
	}
	s.editor.MoveBlock(ctx, b.ID, *p)
	s.emitFlowChanged(ctx, "move_block")
	return textResult(fmt.Sprintf("Block %d moved to (%.0f, %.0f)", b.ID, p.X, p.Y)), nil
}

// chainSpec is one entry of create_chain.
type chainSpec struct {
	Kind  string  `json:"kind"`
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (s *Server) handleCreateChain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, _ := stringArg(req.GetArguments(), "blocks")
	var specs []chainSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("invalid blocks JSON: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("blocks must not be empty")
	}

	// Validate everything before touching the graph.
	kinds := make([]domain.BlockKind, len(specs))
	for i, spec := range specs {
		k, err := domain.ParseBlockKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		kinds[i] = k
	}

	existing := s.editor.Blocks()
	ids := make([]int, 0, len(specs))
	for i, spec := range specs {
		p := s.layout.NextPosition(existing)
		b, err := s.editor.CreateBlock(ctx, graph.NewBlock{
			Kind:     kinds[i],
			Position: &p,
			Title:    spec.Title,
			Body:     spec.Body,
		})
		if err != nil {
			return nil, err
		}
		existing = append(existing, b)
		if len(ids) > 0 {
			if _, err := s.editor.Connect(ctx, ids[len(ids)-1], b.ID); err != nil {
				return nil, err
			}
		}
		ids = append(ids, b.ID)
	}
	s.emitFlowChanged(ctx, "create_chain")
	return jsonResult(map[string]any{"blockIds": ids})
}

func (s *Server) handleArrangeBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	startX, _ := args["startX"].(float64)
	startY, _ := args["startY"].(float64)

	blocks := s.editor.Blocks()
	positions := s.layout.Arrange(blocks, s.editor.Connections(), domain.Point{X: startX, Y: startY})
	for _, b := range blocks {
		s.editor.MoveBlock(ctx, b.ID, positions[b.ID])
	}
	s.emitFlowChanged(ctx, "arrange_blocks")
	return textResult(fmt.Sprintf("Arranged %d blocks", len(blocks))), nil
}
