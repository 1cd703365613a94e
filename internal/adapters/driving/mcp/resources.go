package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/testbrain-cli/internal/core/domain"
)

// uriScheme is the custom URI scheme for testbrain resources.
const uriScheme = "testbrain://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for knowledge-base status.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Active knowledge-base build: id, document and chunk counts, usability",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// statusInfo is the wire shape of the status resource.
type statusInfo struct {
	BuildID          string `json:"build_id,omitempty"`
	BuiltAt          string `json:"built_at,omitempty"`
	Documents        int    `json:"documents"`
	SupportDocChunks int    `json:"support_doc_chunks"`
	MarkupChunks     int    `json:"markup_chunks"`
	Usable           bool   `json:"usable"`
}

// handleStatusResource returns the active build's status.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var info statusInfo

	if s.ports.Ingestion != nil {
		status, err := s.ports.Ingestion.Status(ctx)
		switch {
		case err == nil:
			info = statusInfo{
				BuildID:          status.BuildID,
				BuiltAt:          status.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
				Documents:        status.Documents,
				SupportDocChunks: status.SupportDocChunks,
				MarkupChunks:     status.MarkupChunks,
				Usable:           status.Usable,
			}
		case errors.Is(err, domain.ErrNotFound):
			// No build yet; report the zero status.
		default:
			return nil, fmt.Errorf("reading status: %w", err)
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
