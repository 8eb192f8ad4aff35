package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const uriScheme = "corpus://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "{batch}",
		Name:        "corpus",
		Description: "Canonical corpus of a stored batch: full text, global lines, segments and line map",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)
}

func (s *Server) handleCorpusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	batchID := extractBatchID(req.Params.URI)
	if batchID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	corpus, err := s.ports.Corpus.GetCorpus(ctx, batchID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting corpus: %w", err)
	}

	data, err := json.Marshal(corpus)
	if err != nil {
		return nil, fmt.Errorf("marshalling corpus: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractBatchID extracts the batch id from a URI like corpus://{batch}.
func extractBatchID(uri string) string {
	if !strings.HasPrefix(uri, uriScheme) {
		return ""
	}
	id := strings.TrimPrefix(uri, uriScheme)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
