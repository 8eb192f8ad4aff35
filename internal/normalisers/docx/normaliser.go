package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60 // Preferred over the generic office reader
}

// Normalise reads word/document.xml. Explicit and rendered page breaks
// start a new page; table cells are joined with " | ".
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	body, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	pages, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("parse document.xml: %w", err)
	}
	return &driven.NormaliseResult{Pages: pages, Method: "docx"}, nil
}

func readEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s missing", domain.ErrInvalidInput, name)
}

// parseDocumentXML streams the WordprocessingML body into pages.
func parseDocumentXML(content []byte) ([]domain.PageText, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		pages  []domain.PageText
		page   []string
		line   strings.Builder
		inText bool
		cells  int
	)
	flushPage := func() {
		pages = append(pages, domain.PageText{
			PageNumber: len(pages) + 1,
			RawText:    strings.TrimSpace(strings.Join(page, "\n")),
		})
		page = nil
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte('\t')
			case "br":
				if attr(t, "type") == "page" {
					page = append(page, line.String())
					line.Reset()
					flushPage()
				}
			case "lastRenderedPageBreak":
				if line.Len() == 0 && len(page) > 0 {
					flushPage()
				}
			case "tr":
				cells = 0
			case "tc":
				if cells > 0 {
					line.WriteString(" | ")
				}
				cells++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				// paragraphs inside a table cell stay on the row's line
				if cells == 0 {
					page = append(page, line.String())
					line.Reset()
				} else {
					line.WriteByte(' ')
				}
			case "tr":
				page = append(page, strings.Join(strings.Fields(line.String()), " "))
				line.Reset()
				cells = 0
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if line.Len() > 0 {
		page = append(page, line.String())
	}
	flushPage()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
