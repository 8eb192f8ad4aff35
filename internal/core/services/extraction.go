package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// DefaultExtractionTimeout bounds one document's text extraction.
const DefaultExtractionTimeout = 60 * time.Second

// Ensure GuardedExtractor implements the interface.
var _ driven.TextExtractor = (*GuardedExtractor)(nil)

// GuardedExtractor wraps a text extractor with a timeout. Errors, timeouts
// and empty results all come back as the NO DATA FOUND stub so a bad file
// never silently becomes an empty string.
type GuardedExtractor struct {
	inner   driven.TextExtractor
	timeout time.Duration
}

// NewGuardedExtractor wraps inner. A non-positive timeout uses the default.
func NewGuardedExtractor(inner driven.TextExtractor, timeout time.Duration) *GuardedExtractor {
	if timeout <= 0 {
		timeout = DefaultExtractionTimeout
	}
	return &GuardedExtractor{inner: inner, timeout: timeout}
}

// Supports delegates to the wrapped extractor.
func (g *GuardedExtractor) Supports(filename, mimeType string) bool {
	return g.inner != nil && g.inner.Supports(filename, mimeType)
}

type extractOutcome struct {
	res *domain.ExtractionResult
	err error
}

// Extract never returns an error; the stub carries Failed=true and the
// cause in Reason instead.
func (g *GuardedExtractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractionResult, error) {
	if g.inner == nil {
		return domain.FailedExtraction("none"), nil
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// The extractor may ignore ctx (cgo OCR), so wait on it separately.
	done := make(chan extractOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- extractOutcome{err: fmt.Errorf("%w: panic: %v", domain.ErrExtractionFailed, p)}
			}
		}()
		res, err := g.inner.Extract(ctx, raw)
		done <- extractOutcome{res: res, err: err}
	}()

	var out extractOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = fmt.Errorf("%w: %v", domain.ErrExtractionFailed, ctx.Err())
	}

	if out.err == nil && isEmpty(out.res) {
		out.err = fmt.Errorf("%w: no text", domain.ErrExtractionFailed)
	}
	if out.err != nil {
		method := "none"
		if out.res != nil && out.res.Method != "" {
			method = out.res.Method
		}
		stub := domain.FailedExtraction(method)
		stub.Reason = out.err.Error()
		return stub, nil
	}
	return out.res, nil
}

func isEmpty(res *domain.ExtractionResult) bool {
	if res == nil {
		return true
	}
	for _, p := range res.Pages {
		if strings.TrimSpace(p.RawText) != "" {
			return false
		}
	}
	return true
}
