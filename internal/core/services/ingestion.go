package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/pipeline/classifier"
	"github.com/custodia-labs/licita-cli/internal/pipeline/dedup"
	"github.com/custodia-labs/licita-cli/internal/pipeline/indexer"
)

// IngestionService admits a batch and turns each raw file into a processed
// document: extract, classify, index and fingerprint.
type IngestionService struct {
	extractor    driven.TextExtractor
	classifier   *classifier.Classifier
	batch        domain.BatchSettings
	sampleTokens int
}

// NewIngestionService creates an ingestion service. The extractor should
// already be guarded so that failures come back as NO DATA FOUND stubs.
func NewIngestionService(
	extractor driven.TextExtractor,
	cls *classifier.Classifier,
	batch domain.BatchSettings,
	sampleTokens int,
) *IngestionService {
	defaults := domain.DefaultAppSettings()
	if batch.MaxFiles <= 0 {
		batch.MaxFiles = defaults.Batch.MaxFiles
	}
	if batch.MaxFileSizeMB <= 0 {
		batch.MaxFileSizeMB = defaults.Batch.MaxFileSizeMB
	}
	if sampleTokens <= 0 {
		sampleTokens = defaults.Pipeline.SampleTokens
	}
	return &IngestionService{
		extractor:    extractor,
		classifier:   cls,
		batch:        batch,
		sampleTokens: sampleTokens,
	}
}

// Admit enforces the batch caps before any work is done.
func (s *IngestionService) Admit(docs []domain.RawDocument) error {
	if len(docs) == 0 {
		return domain.ErrEmptyBatch
	}
	if len(docs) > s.batch.MaxFiles {
		return fmt.Errorf("%w: %d files, limit is %d", domain.ErrTooManyFiles, len(docs), s.batch.MaxFiles)
	}
	limit := s.batch.MaxFileBytes()
	for i := range docs {
		d := &docs[i]
		size := d.Size
		if n := int64(len(d.Content)); n > size {
			size = n
		}
		if size > limit {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d MB", domain.ErrFileTooLarge, d.Filename, size, s.batch.MaxFileSizeMB)
		}
		if s.extractor != nil && !s.extractor.Supports(d.Filename, d.MIMEType) {
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedType, d.Filename)
		}
	}
	return nil
}

// Process runs one goroutine per document and joins them before returning.
// Results keep the input order. A classification failure is fatal for
// the batch; extraction failures only degrade their document.
func (s *IngestionService) Process(ctx context.Context, rc *domain.RunContext, docs []domain.RawDocument) ([]*domain.ProcessedDocument, error) {
	if rc == nil {
		rc = domain.NewRunContext("", nil)
	}
	out := make([]*domain.ProcessedDocument, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					rc.Log.Debugf("panic while processing %s: %v\n%s", docs[i].Filename, p, debug.Stack())
					errs[i] = fmt.Errorf("%w: %s: panic: %v", domain.ErrClassificationFailed, docs[i].Filename, p)
				}
			}()
			out[i], errs[i] = s.processOne(ctx, rc, &docs[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}
	return out, nil
}

func (s *IngestionService) processOne(ctx context.Context, rc *domain.RunContext, raw *domain.RawDocument) (*domain.ProcessedDocument, error) {
	doc := &domain.ProcessedDocument{
		ID:         raw.ID,
		Filename:   raw.Filename,
		Size:       raw.Size,
		UploadedAt: raw.UploadedAt,
		Order:      raw.Order,
	}

	res, err := s.extract(ctx, raw)
	if err != nil {
		res = domain.FailedExtraction("none")
		res.Reason = err.Error()
	}
	if res.Failed {
		doc.Warnings = append(doc.Warnings, domain.FlagExtractionFailed+":"+raw.Filename)
		if res.Reason != "" {
			rc.Log.Warnf("text extraction failed for %s: %s", raw.Filename, res.Reason)
		}
		rc.Log.Warnf("%s contributes only %s", raw.Filename, domain.NoDataFound)
	}
	doc.Extraction = res

	text := res.Text()
	cls, err := s.classifier.Classify(raw.ID, raw.Filename, text)
	if err != nil {
		return nil, err
	}
	doc.Classification = cls
	rc.Log.Infof("%s classified as %s (%.2f, %s)", raw.Filename, cls.Type, cls.Confidence, cls.Decision)
	if cls.Flags.NeedsReview {
		doc.Warnings = append(doc.Warnings, domain.FlagNeedsReview+":"+raw.Filename)
	}

	doc.Index = indexer.Build(raw.ID, res.Pages)
	if !res.Failed {
		doc.Fingerprint = dedup.Fingerprint(text, s.sampleTokens)
	}
	return doc, nil
}

func (s *IngestionService) extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractionResult, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no text extractor configured", domain.ErrExtractionFailed)
	}
	res, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: empty result", domain.ErrExtractionFailed)
	}
	return res, nil
}
