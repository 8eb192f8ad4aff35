package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func TestPriority(t *testing.T) {
	assert.Equal(t, 5, New().Priority())
	assert.Contains(t, New().SupportedExtensions(), ".txt")
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []domain.PageText
	}{
		{"single page", "EDITAL\nObjeto", []domain.PageText{{PageNumber: 1, RawText: "EDITAL\nObjeto"}}},
		{"form feeds", "p1\fp2\r\nlinha", []domain.PageText{{PageNumber: 1, RawText: "p1"}, {PageNumber: 2, RawText: "p2\nlinha"}}},
		{"empty", "", []domain.PageText{{PageNumber: 1, RawText: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Normalise(context.Background(), &domain.RawDocument{Filename: "a.txt", Content: []byte(tt.content)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Pages)
			assert.Equal(t, "text", res.Method)
			assert.False(t, res.QualityKnown)
		})
	}
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}
