package domain

// Degradation flags attached to a best-effort AnalysisResult. Each names the
// stage whose model/index call fell back to its deterministic path.
const (
	DegradedClassification = "classification"
	DegradedExtraction     = "extraction"
	DegradedRetrieval      = "retrieval"
	DegradedSimplifier     = "simplifier"
)

// AnalysisResult is the aggregate produced by one analysis invocation. It is
// assembled once by the orchestrator and treated as immutable afterwards;
// the cache hands the same value to every caller within its TTL.
type AnalysisResult struct {
	ContentHash    string               `json:"content_hash"`
	Classification ClassificationResult `json:"classification"`
	Fields         ExtractionResult     `json:"fields"`
	Disagreements  []FieldDisagreement  `json:"disagreements,omitempty"`
	Risk           RiskLevel            `json:"risk_level"`
	PlanState      PlanState            `json:"plan_state"`
	Advisory       bool                 `json:"advisory,omitempty"`
	Steps          []ActionStep         `json:"steps"`
	Chunks         []RetrievedChunk     `json:"context_chunks,omitempty"`
	SummaryOneLine string               `json:"summary_one_line"`
	StepsEasy      []string             `json:"steps_easy"`
	Degraded       []string             `json:"degraded,omitempty"`
	ProcessingMS   int64                `json:"processing_ms"`
}

func (r *AnalysisResult) IsDegraded() bool {
	return len(r.Degraded) > 0
}
