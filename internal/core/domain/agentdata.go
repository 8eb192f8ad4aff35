package domain

// DocumentSummary describes one corpus segment for reports.
type DocumentSummary struct {
	DocumentID string       `json:"documentId"`
	Filename   string       `json:"filename"`
	Type       DocumentType `json:"type"`
	Lines      LineRange    `json:"lines"`
	Pages      int          `json:"pages"`
	OCRQuality float64      `json:"ocrQuality"`
}

// SectionRef points at a detected chapter or section heading.
type SectionRef struct {
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	DocumentName string    `json:"documentName"`
	Lines        LineRange `json:"lines"`
}

// StructureData is the payload of the structure-mapping agent.
type StructureData struct {
	ProcessNumber     Finding[string] `json:"processNumber"`
	NoticeNumber      Finding[string] `json:"noticeNumber"`
	Modality          Finding[string] `json:"modality"`
	Agency            Finding[string] `json:"agency"`
	Object            Finding[string] `json:"object"`
	JudgmentCriterion Finding[string] `json:"judgmentCriterion"`
	SessionDate       Finding[string] `json:"sessionDate"`
	EstimatedValue    Finding[string] `json:"estimatedValue"`

	Sections  []SectionRef      `json:"sections"`
	Documents []DocumentSummary `json:"documents"`
}

func (StructureData) agentData() {}

// ItemOccurrence is one sighting of a line item in one document.
type ItemOccurrence struct {
	DocumentID   string           `json:"documentId"`
	DocumentName string           `json:"documentName"`
	Quantity     Finding[float64] `json:"quantity"`
	UnitPrice    Finding[float64] `json:"unitPrice"`
}

// LineItem is one procurement item.
type LineItem struct {
	Lot         string           `json:"lot,omitempty"`
	Number      Finding[string]  `json:"number"`
	Description Finding[string]  `json:"description"`
	Unit        Finding[string]  `json:"unit"`
	Quantity    Finding[float64] `json:"quantity"`
	UnitPrice   Finding[float64] `json:"unitPrice"`

	// Category is "material", "service" or "unknown".
	Category    string           `json:"category"`
	Occurrences []ItemOccurrence `json:"occurrences"`
}

// ItemsData is the payload of the item-classification agent.
type ItemsData struct {
	Items []LineItem `json:"items"`

	// EstimatedTotal sums quantity x unit price over items where both were found.
	EstimatedTotal float64 `json:"estimatedTotal"`
	PricedItems    int     `json:"pricedItems"`
}

func (ItemsData) agentData() {}

// Requirement profile statuses.
const (
	ProfileMet          = "met"
	ProfileUnmet        = "unmet"
	ProfileNotEvaluated = "not_evaluated"
)

// Requirement is one eligibility (habilitação) requirement.
type Requirement struct {
	Key           string          `json:"key"`
	Label         string          `json:"label"`
	Category      string          `json:"category"`
	Clause        Finding[string] `json:"clause"`
	Mandatory     bool            `json:"mandatory"`
	ProfileStatus string          `json:"profileStatus"`
}

// ComplianceData is the payload of the compliance-checking agent.
type ComplianceData struct {
	Requirements []Requirement `json:"requirements"`
	Met          int           `json:"met"`
	Unmet        int           `json:"unmet"`
}

func (ComplianceData) agentData() {}

// TechnicalRisk is a clause that raises execution risk.
type TechnicalRisk struct {
	Kind     string          `json:"kind"`
	Severity Severity        `json:"severity"`
	Clause   Finding[string] `json:"clause"`
	Detail   string          `json:"detail,omitempty"`
}

// TechnicalData is the payload of the technical-validation agent.
type TechnicalData struct {
	Risks []TechnicalRisk `json:"risks"`
}

func (TechnicalData) agentData() {}

// DivergentValue is one of the conflicting values of a field.
type DivergentValue struct {
	Value    string   `json:"value"`
	Evidence Evidence `json:"evidence"`
}

// Divergence is a field stated differently across documents.
type Divergence struct {
	Field    string           `json:"field"`
	Severity Severity         `json:"severity"`
	Values   []DivergentValue `json:"values"`
	Notes    string           `json:"notes,omitempty"`
}

// DivergenceData is the payload of the divergence-scanning agent.
type DivergenceData struct {
	Divergences []Divergence `json:"divergences"`
	Compared    []string     `json:"compared"`
}

func (DivergenceData) agentData() {}

// LegalTrigger is a legal provision or clause found in the corpus.
type LegalTrigger struct {
	Code     string   `json:"code"`
	Basis    string   `json:"basis"`
	Severity Severity `json:"severity"`
	Evidence Evidence `json:"evidence"`
	Detail   string   `json:"detail,omitempty"`
}

// Escalation links an upstream alert to its legal basis.
type Escalation struct {
	SourceAgent AgentID    `json:"sourceAgent"`
	AlertCode   string     `json:"alertCode"`
	Basis       string     `json:"basis"`
	Severity    Severity   `json:"severity"`
	Evidence    []Evidence `json:"evidence"`
}

// LegalData is the payload of the legal-analysis agent.
type LegalData struct {
	Triggers    []LegalTrigger `json:"triggers"`
	Escalations []Escalation   `json:"escalations"`
	Regime      string         `json:"regime"`
}

func (LegalData) agentData() {}

// Recommendation is the binary decision.
type Recommendation string

// Recommendations.
const (
	RecommendGo   Recommendation = "go"
	RecommendNoGo Recommendation = "no-go"
)

// ThemeRisk is the aggregated risk of one theme.
type ThemeRisk struct {
	Theme        Theme    `json:"theme"`
	Severity     Severity `json:"severity"`
	Score        int      `json:"score"`
	Insufficient bool     `json:"insufficient"`
	Reasons      []string `json:"reasons"`
}

// DecisionData is the payload of the risk/decision agent.
type DecisionData struct {
	Themes          []ThemeRisk    `json:"themes"`
	OverallSeverity Severity       `json:"overallSeverity"`
	Recommendation  Recommendation `json:"recommendation"`
	Justification   string         `json:"justification"`
	FlipConditions  []string       `json:"flipConditions"`
}

func (DecisionData) agentData() {}

// QuestionAnswer pairs a user question with a located answer.
type QuestionAnswer struct {
	Question string          `json:"question"`
	Answer   Finding[string] `json:"answer"`
}

// ReportData is the payload of the report-synthesis agent.
type ReportData struct {
	Summary        string                 `json:"summary"`
	Recommendation Recommendation         `json:"recommendation"`
	AgentStatus    map[string]AgentStatus `json:"agentStatus"`
	AlertCounts    map[Severity]int       `json:"alertCounts"`
	TopAlerts      []Alert                `json:"topAlerts"`
	EvidenceCount  int                    `json:"evidenceCount"`
	Documents      []DocumentSummary      `json:"documents"`
	Removed        []RemovedDocument      `json:"removed"`
	Answers        []QuestionAnswer       `json:"answers"`
	Timeline       []TimelineEntry        `json:"timeline"`
}

func (ReportData) agentData() {}

// FailureData is the payload substituted when an agent fails.
type FailureData struct {
	Reason string `json:"reason"`
}

func (FailureData) agentData() {}
