package app

import (
	"context"
	"fmt"
	"log"

	"flowboard/internal/canvas"
	"flowboard/internal/config"
	mcpserver "flowboard/internal/mcp"
	"flowboard/internal/service"
)

// ServeMCP runs a headless editor as an MCP server on stdin/stdout until
// ctx is cancelled or the client disconnects. Destructive tools wait for a
// desktop app or the approvals command to resolve them unless autoApprove
// is set.
func ServeMCP(ctx context.Context, cfg *config.Config, autoApprove bool) error {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	editor, err := backend.Editor(cfg, canvas.NopRenderer{}, service.EmitterFunc(func(_ context.Context, event string, _ any) {
		log.Printf("[MCP] %s", event)
	}))
	if err != nil {
		return fmt.Errorf("create editor: %w", err)
	}

	bg, err := StartBackground(ctx, cfg, backend, editor)
	if err != nil {
		return err
	}
	defer bg.Stop()

	deps := mcpserver.Deps{Editor: editor, AutoApprove: autoApprove}
	if backend.Approvals != nil {
		deps.Approvals = backend.Approvals
	} else {
		// Nobody could answer a request kept in memory.
		deps.AutoApprove = true
	}
	srv := mcpserver.New(ctx, deps)

	log.Println("[MCP] Starting standalone stdio server...")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
