package domain

import "encoding/json"

// NoDataFound is the sentinel used wherever no literal evidence exists.
// It replaces any value that would otherwise have to be inferred.
const NoDataFound = "NO DATA FOUND"

// MaxExcerptLength bounds Evidence.LiteralExcerpt, in bytes.
const MaxExcerptLength = 200

// Evidence is a literal, located citation from the corpus.
type Evidence struct {
	Field        string    `json:"field"`
	DocumentName string    `json:"documentName"`
	Page         int       `json:"page"`
	LineRange    LineRange `json:"lineRange"`
	CharRange    CharRange `json:"charRange"`

	// LiteralExcerpt is a verbatim substring of the corpus full text,
	// or exactly NoDataFound.
	LiteralExcerpt string `json:"literalExcerpt"`

	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}

// IsNoData reports whether the evidence is the NO DATA FOUND sentinel.
func (e Evidence) IsNoData() bool {
	return e.LiteralExcerpt == NoDataFound
}

// MissingEvidence returns the sentinel evidence for a field.
func MissingEvidence(field, notes string) Evidence {
	return Evidence{
		Field:          field,
		LiteralExcerpt: NoDataFound,
		Notes:          notes,
	}
}

// Finding is an extracted value together with its mandatory evidence.
// Evidence is a value, not a pointer: a finding without a citation
// cannot be built, only a NotFound one.
type Finding[T any] struct {
	Value    T        `json:"value"`
	Found    bool     `json:"found"`
	Evidence Evidence `json:"evidence"`
}

// Found builds a finding backed by ev.
// If ev is the sentinel the finding is reported as not found.
func Found[T any](value T, ev Evidence) Finding[T] {
	if ev.IsNoData() || ev.LiteralExcerpt == "" {
		var zero T
		return Finding[T]{Value: zero, Found: false, Evidence: MissingEvidence(ev.Field, ev.Notes)}
	}
	return Finding[T]{Value: value, Found: true, Evidence: ev}
}

// NotFound builds the NO DATA FOUND finding for a field.
func NotFound[T any](field string) Finding[T] {
	return Finding[T]{Evidence: MissingEvidence(field, "")}
}

// Display renders the value, or the sentinel when nothing was found.
func (f Finding[T]) Display(format func(T) string) string {
	if !f.Found {
		return NoDataFound
	}
	return format(f.Value)
}

// MarshalJSON renders missing values as the sentinel string.
func (f Finding[T]) MarshalJSON() ([]byte, error) {
	type wire struct {
		Value    any      `json:"value"`
		Found    bool     `json:"found"`
		Evidence Evidence `json:"evidence"`
	}
	w := wire{Value: f.Value, Found: f.Found, Evidence: f.Evidence}
	if !f.Found {
		w.Value = NoDataFound
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the sentinel in place of a missing value.
func (f *Finding[T]) UnmarshalJSON(b []byte) error {
	var w struct {
		Value    json.RawMessage `json:"value"`
		Found    bool            `json:"found"`
		Evidence Evidence        `json:"evidence"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	f.Found = w.Found
	f.Evidence = w.Evidence
	var zero T
	f.Value = zero
	if !w.Found || len(w.Value) == 0 {
		return nil
	}
	return json.Unmarshal(w.Value, &f.Value)
}
