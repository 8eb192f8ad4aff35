package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmptyBatch", ErrEmptyBatch},
		{"ErrTooManyFiles", ErrTooManyFiles},
		{"ErrFileTooLarge", ErrFileTooLarge},
		{"ErrExtractionFailed", ErrExtractionFailed},
		{"ErrClassificationFailed", ErrClassificationFailed},
		{"ErrFusionFailed", ErrFusionFailed},
		{"ErrCorpusInvalid", ErrCorpusInvalid},
		{"ErrAgentFailed", ErrAgentFailed},
		{"ErrInvalidAgentGraph", ErrInvalidAgentGraph},
		{"ErrOracleUnavailable", ErrOracleUnavailable},
		{"ErrMalformedOracleResponse", ErrMalformedOracleResponse},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("admit: %w", ErrTooManyFiles)
	assert.True(t, errors.Is(wrapped, ErrTooManyFiles))
	assert.False(t, errors.Is(wrapped, ErrFileTooLarge))
	assert.Contains(t, wrapped.Error(), "too many files")
}
