package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("nil corpus service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingCorpusService)
	})

	t.Run("nil ports returns error", func(t *testing.T) {
		_, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingCorpusService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Corpus: &mockCorpusService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingCorpusService)
	assert.NoError(t, (&Ports{Corpus: &mockCorpusService{}}).Validate())
}

func TestPorts_CanAnalyze(t *testing.T) {
	load := func(...string) ([]domain.RawDocument, error) { return nil, nil }

	tests := []struct {
		name  string
		ports Ports
		want  bool
	}{
		{"corpus only", Ports{Corpus: &mockCorpusService{}}, false},
		{"no loader", Ports{Corpus: &mockCorpusService{}, Analysis: &mockAnalysisService{}}, false},
		{"all", Ports{Corpus: &mockCorpusService{}, Analysis: &mockAnalysisService{}, Load: load}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ports.canAnalyze())
		})
	}
}
