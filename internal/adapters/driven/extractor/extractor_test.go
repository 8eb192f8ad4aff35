package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/normalisers"
	"github.com/custodia-labs/licita-cli/internal/normalisers/image"
	"github.com/custodia-labs/licita-cli/internal/normalisers/plaintext"
)

func TestLineQuality(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  float64
	}{
		{"all words", []string{"EDITAL DE PREGÃO", "Objeto: cadeiras"}, 100},
		{"half garbage", []string{"Objeto: cadeiras", "#$%&*@ 12 ~~"}, 50},
		{"numbers count against", []string{"1.200,00 350,00"}, 0},
		{"blank lines ignored", []string{"", "   ", "Cláusula primeira"}, 100},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LineQuality(tt.lines), 0.001)
		})
	}
}

func TestExtract_TextNative(t *testing.T) {
	e := New(normalisers.NewRegistry(plaintext.New()))
	assert.True(t, e.Supports("edital.txt", ""))
	assert.False(t, e.Supports("edital.pdf", ""))

	res, err := e.Extract(context.Background(), &domain.RawDocument{
		Filename: "edital.txt",
		Content:  []byte("EDITAL\n%%%%\fANEXO I"),
	})
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	assert.InDelta(t, 66.67, res.QualityScore, 0.01)
	assert.Equal(t, "text", res.Method)
	assert.False(t, res.Failed)
}

func TestExtract_OCRConfidence(t *testing.T) {
	ocr := image.NewWithRecogniser("por", func(context.Context, []byte, string) (string, float64, error) {
		return "EDITAL", 42, nil
	})
	res, err := New(normalisers.NewRegistry(ocr)).Extract(context.Background(), &domain.RawDocument{Filename: "scan.png"})
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.QualityScore)
	assert.Equal(t, "ocr", res.Method)
}

func TestExtract_Errors(t *testing.T) {
	boom := errors.New("encrypted")
	ocr := image.NewWithRecogniser("por", func(context.Context, []byte, string) (string, float64, error) {
		return "", 0, boom
	})
	e := New(normalisers.NewRegistry(ocr))

	_, err := e.Extract(context.Background(), &domain.RawDocument{Filename: "scan.png"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)

	_, err = e.Extract(context.Background(), &domain.RawDocument{Filename: "a.rar"})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
