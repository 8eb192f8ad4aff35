package domain

import "time"

// RawDocument represents the opaque bytes of one uploaded file.
// It is owned by the ingestion stage until the document is classified.
type RawDocument struct {
	// ID is the batch-unique document identifier.
	ID string

	// Filename is the base name of the uploaded file.
	Filename string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Size is the content length in bytes.
	Size int64

	// Content is the raw bytes.
	Content []byte

	// UploadedAt is when the file entered the batch.
	UploadedAt time.Time

	// Order is the first-seen position in the batch.
	// Used for deterministic tie-breaks during deduplication and fusion.
	Order int
}

// PageText is the raw text of one page as returned by text extraction.
type PageText struct {
	PageNumber int    `json:"pageNumber"`
	RawText    string `json:"rawText"`
}

// ExtractionResult is the output of the text extraction collaborator.
type ExtractionResult struct {
	// Pages holds per-page raw text, in page order.
	Pages []PageText `json:"pages"`

	// QualityScore is the extraction quality on a 0-100 scale.
	QualityScore float64 `json:"qualityScore"`

	// Method names the extractor that produced the text (e.g., "pdf", "ocr").
	Method string `json:"method"`

	// Failed is true when the pages are the NO DATA FOUND stub.
	Failed bool `json:"failed"`

	// Reason is the extraction error behind a failed result.
	Reason string `json:"reason,omitempty"`
}

// FailedExtraction returns the stub used when text extraction fails.
// Callers must never treat a failed extraction as an empty string.
func FailedExtraction(method string) *ExtractionResult {
	return &ExtractionResult{
		Pages:        []PageText{{PageNumber: 1, RawText: NoDataFound}},
		QualityScore: 0,
		Method:       method,
		Failed:       true,
	}
}

// Text joins all pages with newlines.
func (r *ExtractionResult) Text() string {
	if r == nil {
		return ""
	}
	n := 0
	for _, p := range r.Pages {
		n += len(p.RawText) + 1
	}
	buf := make([]byte, 0, n)
	for i, p := range r.Pages {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p.RawText...)
	}
	return string(buf)
}
