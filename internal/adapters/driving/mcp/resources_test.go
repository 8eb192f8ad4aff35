package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func TestExtractBatchID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid", "corpus://lote-1", "lote-1"},
		{"invalid prefix", "file://lote-1", ""},
		{"nested path", "corpus://lote-1/lines", ""},
		{"empty id", "corpus://", ""},
		{"empty URI", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBatchID(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCorpusResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns corpus JSON", func(t *testing.T) {
		corpus := &mockCorpusService{corpus: &domain.CanonicalCorpus{
			LoteID:   "lote-1",
			FullText: "EDITAL",
			LineMap:  map[string]domain.LineLocation{"1": {DocumentName: "edital.pdf", Page: 1}},
		}}
		server, err := NewServer(&Ports{Corpus: corpus})
		require.NoError(t, err)

		result, err := server.handleCorpusResource(ctx, makeReadResourceRequest("corpus://lote-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"edital.pdf"`)
		assert.Contains(t, result.Contents[0].Text, `"1":`)
	})

	t.Run("unknown batch is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{err: domain.ErrNotFound}})
		require.NoError(t, err)

		_, err = server.handleCorpusResource(ctx, makeReadResourceRequest("corpus://nope"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}})
		require.NoError(t, err)

		_, err = server.handleCorpusResource(ctx, makeReadResourceRequest("corpus://a/b"))
		assert.Error(t, err)
	})

	t.Run("store errors are wrapped", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{err: errors.New("disk full")}})
		require.NoError(t, err)

		_, err = server.handleCorpusResource(ctx, makeReadResourceRequest("corpus://lote-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting corpus")
	})
}
