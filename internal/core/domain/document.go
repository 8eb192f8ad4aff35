package domain

import "time"

// DocumentType is the procurement role a document plays in a batch.
type DocumentType string

// Known document types.
const (
	TypeCoreNotice          DocumentType = "core-notice"
	TypeTechnicalTerms      DocumentType = "technical-terms"
	TypeContractDraft       DocumentType = "contract-draft"
	TypeInternalPlanning    DocumentType = "internal-planning"
	TypePriceFormation      DocumentType = "price-formation"
	TypeClarifications      DocumentType = "clarifications"
	TypeCompetitivePhase    DocumentType = "competitive-phase"
	TypePostAward           DocumentType = "post-award"
	TypeTechnicalAnnex      DocumentType = "technical-annex"
	TypeSpreadsheet         DocumentType = "spreadsheet"
	TypeExternalSupplierDoc DocumentType = "external-supplier-doc"
	TypeOther               DocumentType = "other"
)

// AllDocumentTypes returns every known type in declaration order.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		TypeCoreNotice,
		TypeTechnicalTerms,
		TypeContractDraft,
		TypeInternalPlanning,
		TypePriceFormation,
		TypeClarifications,
		TypeCompetitivePhase,
		TypePostAward,
		TypeTechnicalAnnex,
		TypeSpreadsheet,
		TypeExternalSupplierDoc,
		TypeOther,
	}
}

// IsValid returns true if the type is recognised.
func (t DocumentType) IsValid() bool {
	_, ok := typePriority[t]
	return ok
}

// Priority returns the fusion order of the type (1 = first).
// Unknown types sort last.
func (t DocumentType) Priority() int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return 8
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

var typePriority = map[DocumentType]int{
	TypeCoreNotice:          1,
	TypeTechnicalTerms:      2,
	TypeContractDraft:       3,
	TypeTechnicalAnnex:      3,
	TypeClarifications:      4,
	TypePriceFormation:      5,
	TypeSpreadsheet:         5,
	TypeInternalPlanning:    6,
	TypeCompetitivePhase:    6,
	TypePostAward:           7,
	TypeExternalSupplierDoc: 7,
	TypeOther:               8,
}

// ClassificationFlags carries review hints raised by the classifier.
type ClassificationFlags struct {
	NeedsReview         bool `json:"needsReview"`
	ExternalSupplierDoc bool `json:"externalSupplierDoc"`
	LowQuality          bool `json:"lowQuality"`
}

// ClassifiedDocument is the classifier's verdict for one document.
type ClassifiedDocument struct {
	DocumentID string       `json:"documentId"`
	Filename   string       `json:"filename"`
	Type       DocumentType `json:"type"`

	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`

	// Scores holds the per-type confidence before thresholds were applied.
	Scores map[DocumentType]float64 `json:"scores,omitempty"`

	// MatchedPatterns lists the pattern sources that matched for the winning type.
	MatchedPatterns []string `json:"matchedPatterns"`

	Flags ClassificationFlags `json:"flags"`

	// Decision names the rule that settled the type
	// ("score", a tie-break rule, "dispensation_override" or "fallback").
	Decision string `json:"decision"`
}

// Fingerprint identifies a document's content for duplicate detection.
// It is produced once per document and never modified.
type Fingerprint struct {
	// ContentHash is the sha256 hex digest of the normalised text.
	ContentHash string `json:"contentHash"`

	// SimilaritySketch is a coarse hash over the first N tokens.
	SimilaritySketch string `json:"similaritySketch"`

	// SampleText is the bounded token sample used for cosine similarity.
	SampleText string `json:"-"`

	// Length is the normalised text length in runes.
	Length int `json:"length"`

	WordCount int `json:"wordCount"`
}

// LocalLine is a line addressed within a single document.
type LocalLine struct {
	// Index is the 1-based line position within the document.
	Index int `json:"index"`

	Text       string `json:"text"`
	Page       int    `json:"page"`
	LineInPage int    `json:"lineInPage"`
	CharStart  int    `json:"charStart"`
	CharEnd    int    `json:"charEnd"`
}

// IndexedDocument is one document's lines and detected structure,
// addressed locally before fusion rebases them into the corpus.
type IndexedDocument struct {
	DocumentID string      `json:"documentId"`
	Lines      []LocalLine `json:"lines"`
	Pages      []int       `json:"pages"`
	Structures Structures  `json:"structures"`
}

// ProcessedDocument bundles everything ingestion learns about one file.
type ProcessedDocument struct {
	ID         string
	Filename   string
	Size       int64
	UploadedAt time.Time
	Order      int

	Extraction     *ExtractionResult
	Classification ClassifiedDocument
	Fingerprint    Fingerprint
	Index          IndexedDocument

	// Warnings are non-fatal issues raised while processing the file.
	Warnings []string
}

// OCRQuality returns the extraction quality score, or 0 if unknown.
func (d *ProcessedDocument) OCRQuality() float64 {
	if d.Extraction == nil {
		return 0
	}
	return d.Extraction.QualityScore
}

// ExtractionFailed reports whether the document only holds the NO DATA FOUND stub.
func (d *ProcessedDocument) ExtractionFailed() bool {
	return d.Extraction == nil || d.Extraction.Failed
}
