// Package eml reads e-mail messages, such as the agency's answers to
// clarification requests, into a single page.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles RFC 822 messages.
type Normaliser struct{}

// New creates a new e-mail normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".eml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise writes the From, Date and Subject headers followed by the body.
// Plain text parts are preferred over HTML ones. Attachments are ignored;
// they must be uploaded as documents of their own.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: read message: %v", domain.ErrInvalidInput, err)
	}

	body, err := readPart(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, h := range []string{"From", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&content, "%s: %s\n", h, v)
		}
	}
	content.WriteString("\n")
	content.WriteString(strings.ReplaceAll(body, "\r\n", "\n"))

	return &driven.NormaliseResult{
		Pages:  []domain.PageText{{PageNumber: 1, RawText: strings.TrimSpace(content.String())}},
		Method: "eml",
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// readPart returns the text of a body with the given content type,
// recursing into multipart containers.
func readPart(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return readMultipart(r, params["boundary"])
	}

	if strings.EqualFold(strings.TrimSpace(encoding), "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	switch mediaType {
	case "text/html":
		return html.Text(body)
	case "text/plain":
		return string(body), nil
	default:
		return "", nil
	}
}

func readMultipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}
	mr := multipart.NewReader(r, boundary)
	var plain, rich []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: multipart: %v", domain.ErrInvalidInput, err)
		}
		if part.FileName() != "" {
			continue
		}
		ct := part.Header.Get("Content-Type")
		// multipart.Reader already decodes quoted-printable parts.
		text, err := readPart(ct, "", part)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if strings.HasPrefix(ct, "text/html") {
			rich = append(rich, text)
		} else {
			plain = append(plain, text)
		}
	}
	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}
