package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"flowboard/internal/codec"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentURI    = "flow://document"
	stateURI       = "flow://state"
	blockURIPrefix = "flow://block/"
)

func (s *Server) registerResources() {
	// ── flow://document ────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentURI,
		"Flow Document",
		mcp.WithResourceDescription("The current flow as an interchange document (does not bump the revision)"),
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)

	// ── flow://state ───────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		stateURI,
		"Canvas State",
		mcp.WithResourceDescription("Blocks, connections, derived views, viewport and interaction state"),
		mcp.WithMIMEType("application/json"),
	), s.handleStateResource)

	// ── flow://block/{blockId} ─────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"flow://block/{blockId}",
			"Single Block",
		),
		s.handleBlockResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc, err := s.editor.Document(ctx)
	if err != nil {
		return nil, err
	}
	data, err := codec.Encode(doc)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, _ := json.MarshalIndent(s.editor.State(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      stateURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleBlockResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id, err := blockIDFromURI(uri)
	if err != nil {
		return nil, err
	}

	state := s.editor.State()
	for _, b := range state.Blocks {
		if b.ID != id {
			continue
		}
		data, _ := json.MarshalIndent(summarizeBlock(b, state.Views[b.ID]), "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
	return nil, fmt.Errorf("block %d not found", id)
}

// blockIDFromURI extracts the id from "flow://block/{id}".
func blockIDFromURI(uri string) (int, error) {
	rest, ok := strings.CutPrefix(uri, blockURIPrefix)
	if !ok || rest == "" {
		return 0, fmt.Errorf("could not extract blockId from URI: %s", uri)
	}
	id, err := strconv.Atoi(strings.TrimSuffix(rest, "/"))
	if err != nil {
		return 0, fmt.Errorf("could not extract blockId from URI: %s", uri)
	}
	return id, nil
}
