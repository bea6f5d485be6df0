package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// analysisResponse is the wire shape of one analysis. Key fields are
// flattened into key_info so low-literacy client UIs can render without
// walking the full field map.
type analysisResponse struct {
	ContentHash    string                     `json:"content_hash"`
	DocType        string                     `json:"doc_type"`
	DocTypeName    string                     `json:"doc_type_name"`
	Confidence     float64                    `json:"confidence"`
	Method         string                     `json:"classification_method"`
	RiskLevel      string                     `json:"risk_level"`
	PlanState      string                     `json:"plan_state"`
	SummaryOneLine string                     `json:"summary_one_line"`
	KeyInfo        keyInfo                    `json:"key_info"`
	Steps          []stepResponse             `json:"steps"`
	StepsEasy      []string                   `json:"steps_easy"`
	ContextChunks  []domain.RetrievedChunk    `json:"context_chunks,omitempty"`
	Disagreements  []domain.FieldDisagreement `json:"disagreements,omitempty"`
	Advisory       bool                       `json:"advisory"`
	Degraded       []string                   `json:"degraded,omitempty"`
	ProcessingMS   int64                      `json:"processing_ms"`
	CreatedAt      *time.Time                 `json:"created_at,omitempty"`
}

type keyInfo struct {
	Amount        *int64 `json:"amount,omitempty"`
	AmountText    string `json:"amount_text,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	Organization  string `json:"organization,omitempty"`
	PenaltyRisk   string `json:"penalty_risk"`
	Contact       string `json:"contact,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

type stepResponse struct {
	Order       int    `json:"order"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Deadline    string `json:"deadline,omitempty"`
}

func toAnalysisResponse(result *domain.AnalysisResult, createdAt *time.Time) analysisResponse {
	resp := analysisResponse{
		ContentHash:    result.ContentHash,
		DocType:        string(result.Classification.DocType),
		DocTypeName:    result.Classification.DocTypeName,
		Confidence:     result.Classification.Confidence,
		Method:         string(result.Classification.Method),
		RiskLevel:      result.Risk.String(),
		PlanState:      string(result.PlanState),
		SummaryOneLine: result.SummaryOneLine,
		KeyInfo:        toKeyInfo(result.Fields),
		Steps:          make([]stepResponse, 0, len(result.Steps)),
		StepsEasy:      result.StepsEasy,
		ContextChunks:  result.Chunks,
		Disagreements:  result.Disagreements,
		Advisory:       result.Advisory,
		Degraded:       result.Degraded,
		ProcessingMS:   result.ProcessingMS,
		CreatedAt:      createdAt,
	}
	for _, step := range result.Steps {
		sr := stepResponse{
			Order:       step.Order,
			Kind:        string(step.Kind),
			Description: step.Description,
		}
		if step.Deadline != nil {
			sr.Deadline = step.Deadline.Format("2006-01-02")
		}
		resp.Steps = append(resp.Steps, sr)
	}
	return resp
}

func toKeyInfo(fields domain.ExtractionResult) keyInfo {
	info := keyInfo{PenaltyRisk: string(fields.PenaltyRisk())}

	if v, ok := fields.Get(domain.FieldAmount); ok {
		amount := v.Amount
		info.Amount = &amount
		info.AmountText = v.Text
	}
	if due, ok := fields.DueDate(); ok {
		info.DueDate = due.Format("2006-01-02")
	}
	if org, ok := fields.Organization(); ok {
		info.Organization = org
	}
	if contact, ok := fields.Contact(); ok {
		info.Contact = contact
	}
	if v, ok := fields.Get(domain.FieldAccountNumber); ok {
		info.AccountNumber = v.Text
	}
	return info
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	writeJSON(w, status, resp)
}
