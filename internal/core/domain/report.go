package domain

import "time"

// ValidationStatus is the outcome of corpus validation.
type ValidationStatus string

// Validation statuses.
const (
	ValidationSuccess ValidationStatus = "success"
	ValidationWarning ValidationStatus = "warning"
	ValidationError   ValidationStatus = "error"
)

// ValidationResult is produced by the pipeline validator.
// Only Errors block agents; Warnings are surfaced in the final report.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Status   ValidationStatus `json:"status"`
	Warnings []string         `json:"warnings"`
	Errors   []string         `json:"errors"`

	// Flags are corpus warning flags raised by validation (e.g., low_ocr_quality).
	Flags []string `json:"flags"`
}

// ReportStatus is the overall batch outcome.
type ReportStatus string

// Report statuses.
const (
	ReportSuccess               ReportStatus = "success"
	ReportCompletedWithWarnings ReportStatus = "completed_with_warnings"
)

// TimelineEntry is one line of the black-box execution log.
type TimelineEntry struct {
	At      time.Time `json:"at"`
	Level   string    `json:"level"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

// FinalReport is the well-formed result of a batch run.
type FinalReport struct {
	LoteID     string                   `json:"loteId"`
	Status     ReportStatus             `json:"status"`
	Validation ValidationResult         `json:"validation"`
	Agents     map[string]AgentEnvelope `json:"agents"`
	Timeline   []TimelineEntry          `json:"timeline"`
	Warnings   []string                 `json:"warnings"`
	StartedAt  time.Time                `json:"startedAt"`
	FinishedAt time.Time                `json:"finishedAt"`
}

// Envelope returns the envelope stored for an agent.
func (r *FinalReport) Envelope(id AgentID) (AgentEnvelope, bool) {
	if r == nil {
		return AgentEnvelope{}, false
	}
	env, ok := r.Agents[id.ReportKey()]
	return env, ok
}

// Decision returns the decision payload, if the decision agent produced one.
func (r *FinalReport) Decision() (DecisionData, bool) {
	env, ok := r.Envelope(AgentDecision)
	if !ok {
		return DecisionData{}, false
	}
	d, ok := env.Data.(DecisionData)
	return d, ok
}

// BatchRecord summarises a stored batch.
type BatchRecord struct {
	ID                string         `json:"id"`
	Status            ReportStatus   `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	TotalDocuments    int            `json:"totalDocuments"`
	TotalLines        int            `json:"totalLines"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	Recommendation    Recommendation `json:"recommendation"`
}

// LineLookup is a resolved corpus line.
type LineLookup struct {
	BatchID      string       `json:"batchId"`
	Line         GlobalLine   `json:"line"`
	DocumentName string       `json:"documentName"`
	DocumentType DocumentType `json:"documentType"`
}

// PipelineResult is the output of the fusion pipeline for one batch,
// before any agent has run.
type PipelineResult struct {
	Corpus     *CanonicalCorpus     `json:"corpus"`
	Validation ValidationResult     `json:"validation"`
	Documents  []ClassifiedDocument `json:"documents"`
	Removed    []RemovedDocument    `json:"removed"`
	Warnings   []string             `json:"warnings"`
}
