package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(t *testing.T, body string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, _ = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if body != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, _ = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`))
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 60, New().Priority())
	assert.Equal(t, []string{".docx"}, New().SupportedExtensions())
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []domain.PageText
	}{
		{
			name: "paragraphs",
			body: para("TERMO DE REFERÊNCIA") + para("1. DO OBJETO"),
			want: []domain.PageText{{PageNumber: 1, RawText: "TERMO DE REFERÊNCIA\n1. DO OBJETO"}},
		},
		{
			name: "runs join",
			body: `<w:p><w:r><w:t>Valor </w:t></w:r><w:r><w:t xml:space="preserve">estimado</w:t></w:r></w:p>`,
			want: []domain.PageText{{PageNumber: 1, RawText: "Valor estimado"}},
		},
		{
			name: "page break",
			body: para("Página um") + `<w:p><w:r><w:br w:type="page"/><w:t>Página dois</w:t></w:r></w:p>`,
			want: []domain.PageText{
				{PageNumber: 1, RawText: "Página um"},
				{PageNumber: 2, RawText: "Página dois"},
			},
		},
		{
			name: "table rows",
			body: `<w:tbl><w:tr><w:tc>` + para("Item") + `</w:tc><w:tc>` + para("Qtd") + `</w:tc></w:tr>` +
				`<w:tr><w:tc>` + para("Cadeira") + `</w:tc><w:tc>` + para("10") + `</w:tc></w:tr></w:tbl>` + para("Fim"),
			want: []domain.PageText{{PageNumber: 1, RawText: "Item | Qtd\nCadeira | 10\nFim"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Normalise(context.Background(), &domain.RawDocument{
				Filename: "tr.docx",
				Content:  createTestDOCX(t, tt.body),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Pages)
			assert.Equal(t, "docx", res.Method)
		})
	}
}

func TestNormalise_Invalid(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{Content: []byte("not a zip")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), &domain.RawDocument{Content: createTestDOCX(t, "")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
