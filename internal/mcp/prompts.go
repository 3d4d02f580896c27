package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_flow",
		mcp.WithPromptDescription("Build an intro → body → conclusion flow about a topic"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the flow is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("points",
			mcp.ArgumentDescription("How many body blocks to create (default 3)"),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_flow",
		mcp.WithPromptDescription("Check the current flow for unreachable or dangling blocks and fix them"),
	), s.handleReviewPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	points := req.Params.Arguments["points"]
	if points == "" {
		points = "3"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline a flow about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a flow about "%s" on the canvas. Follow these steps:

1. Use create_block with kind "intro" for the opening, titled after the topic.
2. Create %s blocks of kind "body", one per key point, with a short body each.
3. Create one block of kind "conclusion".
4. Chain them with connect_blocks: intro → each body block in order → conclusion.
5. Call arrange_blocks so the flow reads left to right.
6. Finish with run_flow and check the transcript reads well.`, topic, points),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review the current flow",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Read the flow://state resource and review the flow:

- Every block whose summary is "No connections" is isolated; connect it or ask whether to delete it.
- run_flow follows the first outgoing connection of each block; make sure it reaches a conclusion block.
- There should be exactly one intro block.

Report what you changed.`,
				},
			},
		},
	}, nil
}
