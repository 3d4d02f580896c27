package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"flowboard/internal/domain"
	"flowboard/internal/export"
	"flowboard/internal/runner"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerFlowTools() {
	// ── export_flow ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_flow",
		mcp.WithDescription("Export the flow as a versioned JSON document. Every export bumps the revision."),
		mcp.WithString("path", mcp.Description("Write the document to this file (optional; returned inline otherwise)")),
	), s.handleExportFlow)

	// ── import_flow ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_flow",
		mcp.WithDescription("Replace the whole flow with a JSON document. An invalid document changes nothing."),
		mcp.WithString("document", mcp.Description("Document JSON (either this or path)")),
		mcp.WithString("path", mcp.Description("Document file to read (either this or document)")),
	), s.handleImportFlow)

	// ── run_flow ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("run_flow",
		mcp.WithDescription("Walk the flow from its intro block along first outgoing connections and return the transcript"),
		mcp.WithNumber("maxSteps", mcp.Description("Stop after this many blocks (default 1000)")),
	), s.handleRunFlow)

	// ── render_png ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_png",
		mcp.WithDescription("Render the flow to a PNG image file"),
		mcp.WithString("path", mcp.Description("Output file"), mcp.Required()),
	), s.handleRenderPNG)

	// ── clear_canvas (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove every block and connection and reset the revision. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCanvas)
}

func (s *Server) handleExportFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, raw, err := s.editor.Export(ctx)
	if err != nil {
		return nil, err
	}
	path, _ := stringArg(req.GetArguments(), "path")
	if path == "" {
		return textResult(string(raw)), nil
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return textResult(fmt.Sprintf("Exported %s (version %s) to %s", doc.Meta.ProjectName, doc.Meta.Version, path)), nil
}

func (s *Server) handleImportFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, err := documentArg(args)
	if err != nil {
		return nil, err
	}

	doc, err := s.editor.Import(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	s.emitFlowChanged(ctx, "import_flow")
	return textResult(fmt.Sprintf("Imported %s: %d blocks, %d connections",
		doc.Meta.ProjectName, len(doc.Blocks), len(doc.Connections))), nil
}

func documentArg(args map[string]any) ([]byte, error) {
	if doc, ok := stringArg(args, "document"); ok && doc != "" {
		return []byte(doc), nil
	}
	if path, ok := stringArg(args, "path"); ok && path != "" {
		return os.ReadFile(path)
	}
	return nil, fmt.Errorf("document or path is required")
}

func (s *Server) handleRunFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxSteps, _ := req.GetArguments()["maxSteps"].(float64)

	doc, err := s.editor.Document(ctx)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := runner.Run(ctx, &out, doc, runner.Options{MaxSteps: int(maxSteps)}); err != nil {
		if out.Len() == 0 {
			return nil, err
		}
		fmt.Fprintf(&out, "\n(%v)\n", err)
	}
	return textResult(out.String()), nil
}

func (s *Server) handleRenderPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := stringArg(req.GetArguments(), "path")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	doc, err := s.editor.Document(ctx)
	if err != nil {
		return nil, err
	}
	if err := export.SavePNG(path, doc); err != nil {
		return nil, err
	}
	return textResult("Rendered " + path), nil
}

func (s *Server) handleClearCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := len(s.editor.Blocks())
	if err := s.approval.Request(ctx, "clear_canvas",
		fmt.Sprintf("Remove all %d blocks and reset the revision", n)); err != nil {
		return nil, err
	}
	if err := s.editor.ClearAll(ctx); err != nil {
		return nil, err
	}
	s.emitFlowChanged(ctx, "clear_canvas")
	return textResult(fmt.Sprintf("Cleared %d blocks", n)), nil
}

// ── Snapshots ──────────────────────────────────────────────

func (s *Server) registerSnapshotTools() {
	s.mcp.AddTool(mcp.NewTool("snapshot_flow",
		mcp.WithDescription("Save the current flow to snapshot history without bumping the revision"),
		mcp.WithString("label", mcp.Description("Label for the snapshot (optional)")),
	), s.handleSnapshotFlow)

	s.mcp.AddTool(mcp.NewTool("list_snapshots",
		mcp.WithDescription("List saved snapshots, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of snapshots (default 20)")),
	), s.handleListSnapshots)

	s.mcp.AddTool(mcp.NewTool("restore_snapshot",
		mcp.WithDescription("🛑 DESTRUCTIVE: Replace the flow with a saved snapshot. Requires user approval."),
		mcp.WithString("snapshotId", mcp.Description("Snapshot ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRestoreSnapshot)
}

func (s *Server) handleSnapshotFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, _ := stringArg(req.GetArguments(), "label")
	snap, err := s.editor.Snapshot(ctx, label, domain.SourceManual)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Saved snapshot %s (%d blocks)", snap.ID, snap.BlockCount)), nil
}

func (s *Server) handleListSnapshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 20
	if v, ok := req.GetArguments()["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	snaps, err := s.editor.Snapshots(ctx, limit)
	if err != nil {
		return nil, err
	}
	return jsonResult(snaps)
}

func (s *Server) handleRestoreSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := stringArg(req.GetArguments(), "snapshotId")
	if id == "" {
		return nil, fmt.Errorf("snapshotId is required")
	}
	if err := s.approval.Request(ctx, "restore_snapshot", "Replace the flow with snapshot "+id); err != nil {
		return nil, err
	}
	if err := s.editor.RestoreSnapshot(ctx, id); err != nil {
		return nil, err
	}
	s.emitFlowChanged(ctx, "restore_snapshot")
	return textResult("Restored snapshot " + id), nil
}
