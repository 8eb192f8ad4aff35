package domain

import "encoding/json"

// AgentID names an extraction agent.
type AgentID string

// The eight extraction agents.
const (
	AgentStructure  AgentID = "structure-mapping"
	AgentItems      AgentID = "item-classification"
	AgentCompliance AgentID = "compliance-checking"
	AgentTechnical  AgentID = "technical-validation"
	AgentLegal      AgentID = "legal-analysis"
	AgentDivergence AgentID = "divergence-scanning"
	AgentDecision   AgentID = "risk-decision"
	AgentReport     AgentID = "report-synthesis"
)

// reportKeys are the fixed keys used by the reporting layer.
var reportKeys = map[AgentID]string{
	AgentStructure:  "AGENT_02",
	AgentItems:      "AGENT_03",
	AgentCompliance: "AGENT_04",
	AgentTechnical:  "AGENT_05",
	AgentLegal:      "AGENT_06",
	AgentDivergence: "AGENT_07",
	AgentDecision:   "AGENT_08",
	AgentReport:     "AGENT_09",
}

// ReportKey returns the stable report key (AGENT_02 ... AGENT_09).
func (a AgentID) ReportKey() string {
	if k, ok := reportKeys[a]; ok {
		return k
	}
	return string(a)
}

// String returns the string representation.
func (a AgentID) String() string {
	return string(a)
}

// AgentExecutionOrder returns the agents in their declared execution order.
func AgentExecutionOrder() []AgentID {
	return []AgentID{
		AgentStructure,
		AgentItems,
		AgentCompliance,
		AgentTechnical,
		AgentDivergence,
		AgentLegal,
		AgentDecision,
		AgentReport,
	}
}

// AgentStatus is the outcome of one agent run.
type AgentStatus string

// Agent statuses.
const (
	StatusOK      AgentStatus = "ok"
	StatusPartial AgentStatus = "partial"
	StatusFail    AgentStatus = "fail"
)

// Severity is the 3-level risk scale.
type Severity string

// Severities, lowest first.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities (low=1, medium=2, high=3, unknown=0).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Theme groups alerts for the decision agent.
type Theme string

// Alert themes.
const (
	ThemeMetadata   Theme = "metadata"
	ThemeItems      Theme = "items"
	ThemeCompliance Theme = "compliance"
	ThemeTechnical  Theme = "technical"
	ThemeDivergence Theme = "divergence"
	ThemeLegal      Theme = "legal"
	ThemePipeline   Theme = "pipeline"
)

// Orchestration alert codes. These are the only alerts allowed to carry no evidence.
const (
	AlertAgentFailed          = "agent_failed"
	AlertUpstreamInsufficient = "upstream_insufficient"
	AlertEvidenceRejected     = "evidence_rejected"
)

// Alert is a finding worth a reviewer's attention.
// Risk and legal alerts always carry at least one evidence item.
type Alert struct {
	Code     string     `json:"code"`
	Theme    Theme      `json:"theme"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Evidence []Evidence `json:"evidence"`
}

// Evidenced reports whether the alert cites real corpus text.
func (a Alert) Evidenced() bool {
	for _, ev := range a.Evidence {
		if !ev.IsNoData() {
			return true
		}
	}
	return false
}

// EnvelopeMetadata carries run statistics for an agent.
type EnvelopeMetadata struct {
	RunMs      int64   `json:"runMs"`
	ItemsFound int     `json:"itemsFound"`
	Confidence float64 `json:"confidence"`
}

// QualityFlags carries review hints for an agent's output.
type QualityFlags struct {
	NeedsReview      bool     `json:"needsReview"`
	LowOCRQuality    bool     `json:"lowOcrQuality"`
	MissingSections  []string `json:"missingSections"`
	EvidenceRejected int      `json:"evidenceRejected,omitempty"`
}

// AgentData is the typed payload of an envelope. Each agent has its own type.
type AgentData interface {
	agentData()

	// VerifyFindings demotes to NOT FOUND every found finding whose
	// evidence fails ok, and drops evidence-only records that fail it.
	// Returns the checked payload and the number of rejections.
	VerifyFindings(ok func(Evidence) bool) (AgentData, int)
}

// AgentEnvelope is the uniform result of every agent.
// Envelopes are never mutated once the orchestrator has accepted them.
type AgentEnvelope struct {
	AgentID      AgentID          `json:"agentId"`
	Status       AgentStatus      `json:"status"`
	Data         AgentData        `json:"data"`
	Alerts       []Alert          `json:"alerts"`
	Evidence     []Evidence       `json:"evidence"`
	Metadata     EnvelopeMetadata `json:"metadata"`
	QualityFlags QualityFlags     `json:"qualityFlags"`
}

// Usable reports whether later agents may rely on this envelope.
// Partial and failed envelopes mean "insufficient evidence", never "no risk".
func (e AgentEnvelope) Usable() bool {
	return e.Status == StatusOK
}

// newAgentData returns an empty payload of the type an agent produces.
func newAgentData(id AgentID) AgentData {
	switch id {
	case AgentStructure:
		return &StructureData{}
	case AgentItems:
		return &ItemsData{}
	case AgentCompliance:
		return &ComplianceData{}
	case AgentTechnical:
		return &TechnicalData{}
	case AgentLegal:
		return &LegalData{}
	case AgentDivergence:
		return &DivergenceData{}
	case AgentDecision:
		return &DecisionData{}
	case AgentReport:
		return &ReportData{}
	default:
		return &FailureData{}
	}
}

// UnmarshalJSON restores the typed payload from the agent ID.
func (e *AgentEnvelope) UnmarshalJSON(b []byte) error {
	type plain AgentEnvelope
	var w struct {
		plain
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = AgentEnvelope(w.plain)
	e.Data = nil
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return nil
	}

	data := newAgentData(e.AgentID)
	if e.Status == StatusPartial || e.Status == StatusFail {
		// Failed agents carry FailureData; try it first.
		var fd FailureData
		if err := json.Unmarshal(w.Data, &fd); err == nil && fd.Reason != "" {
			e.Data = fd
			return nil
		}
	}
	if err := json.Unmarshal(w.Data, data); err != nil {
		return err
	}
	e.Data = derefAgentData(data)
	return nil
}

func derefAgentData(d AgentData) AgentData {
	switch v := d.(type) {
	case *StructureData:
		return *v
	case *ItemsData:
		return *v
	case *ComplianceData:
		return *v
	case *TechnicalData:
		return *v
	case *LegalData:
		return *v
	case *DivergenceData:
		return *v
	case *DecisionData:
		return *v
	case *ReportData:
		return *v
	case *FailureData:
		return *v
	default:
		return d
	}
}
