package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DocType is the enumerated category of a public notice.
type DocType string

const (
	DocTypeHealthInsuranceBill DocType = "건강보험료_고지서"
	DocTypePensionNotice       DocType = "국민연금_안내문"
	DocTypeNationalTaxNotice   DocType = "세금_통지서"
	DocTypeLocalTaxBill        DocType = "지방세_고지서"
	DocTypeCommunityNotice     DocType = "주민센터_안내문"
	DocTypeWelfareNotice       DocType = "복지_안내문"
	DocTypeUtilityBill         DocType = "공과금_고지서"
	DocTypeBankNotice          DocType = "은행_통지서"
	DocTypeCourtNotice         DocType = "법원_통지서"
	DocTypeOtherPublic         DocType = "기타_공공문서"
	DocTypeUnknown             DocType = "UNKNOWN"
)

type ClassificationMethod string

const (
	MethodRule   ClassificationMethod = "RULE"
	MethodModel  ClassificationMethod = "MODEL"
	MethodHybrid ClassificationMethod = "HYBRID"
)

// ClassificationResult is produced once per RawDocument and never mutated.
type ClassificationResult struct {
	DocType     DocType              `json:"doc_type"`
	DocTypeName string               `json:"doc_type_name"`
	Confidence  float64              `json:"confidence"`
	Method      ClassificationMethod `json:"method"`
}

// LayoutHint is an optional bounding box supplied by the OCR collaborator.
type LayoutHint struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text,omitempty"`
}

// RawDocument is the recognized text of one notice. Identity is the content
// hash; two uploads with identical text are the same document.
type RawDocument struct {
	Text   string       `json:"text"`
	Layout []LayoutHint `json:"layout,omitempty"`
	Hash   string       `json:"hash"`
}

func NewRawDocument(text string, layout []LayoutHint) RawDocument {
	return RawDocument{
		Text:   text,
		Layout: layout,
		Hash:   ContentHash(text),
	}
}

func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// RiskLevel is totally ordered: Low < Medium < High.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return RiskHigh
	case "MEDIUM":
		return RiskMedium
	default:
		return RiskLow
	}
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	*r = ParseRiskLevel(strings.Trim(string(data), `"`))
	return nil
}

// Downgrade lowers the risk by one step, never below Low.
func (r RiskLevel) Downgrade() RiskLevel {
	if r > RiskLow {
		return r - 1
	}
	return RiskLow
}

func MaxRisk(a, b RiskLevel) RiskLevel {
	if a > b {
		return a
	}
	return b
}

// AnalysisRecord is the persisted/published form of one completed analysis.
// RawText rides along on the event bus for archival and is not stored in the
// history table.
type AnalysisRecord struct {
	ID          string         `json:"id"`
	ContentHash string         `json:"content_hash"`
	RawText     string         `json:"raw_text,omitempty"`
	Result      AnalysisResult `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}
