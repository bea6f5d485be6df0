package domain

import (
	"strings"
	"time"
)

type FieldName string

const (
	FieldAmount        FieldName = "AMOUNT"
	FieldDueDate       FieldName = "DUE_DATE"
	FieldOrganization  FieldName = "ORGANIZATION"
	FieldPenaltyRisk   FieldName = "PENALTY_RISK"
	FieldContact       FieldName = "CONTACT"
	FieldAccountNumber FieldName = "ACCOUNT_NUMBER"
)

type FieldSource string

const (
	SourcePattern FieldSource = "PATTERN"
	SourceModel   FieldSource = "MODEL"
	SourceMerged  FieldSource = "MERGED"
)

// PenaltyRisk mirrors the original notice vocabulary: NONE means a plain
// informational document, HIGH means dunning/seizure language was found.
type PenaltyRisk string

const (
	PenaltyNone   PenaltyRisk = "NONE"
	PenaltyLow    PenaltyRisk = "LOW"
	PenaltyMedium PenaltyRisk = "MEDIUM"
	PenaltyHigh   PenaltyRisk = "HIGH"
)

func ParsePenaltyRisk(s string) (PenaltyRisk, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return PenaltyNone, true
	case "LOW":
		return PenaltyLow, true
	case "MEDIUM":
		return PenaltyMedium, true
	case "HIGH":
		return PenaltyHigh, true
	default:
		return PenaltyNone, false
	}
}

func (p PenaltyRisk) Rank() int {
	switch p {
	case PenaltyHigh:
		return 3
	case PenaltyMedium:
		return 2
	case PenaltyLow:
		return 1
	default:
		return 0
	}
}

// FieldValue is one extracted field. Text always carries the normalized
// display form; Amount, Date and Risk are set for their respective fields.
type FieldValue struct {
	Name       FieldName   `json:"name"`
	Text       string      `json:"text"`
	Amount     int64       `json:"amount,omitempty"`
	Date       time.Time   `json:"date,omitzero"`
	Risk       PenaltyRisk `json:"risk,omitempty"`
	Confidence float64     `json:"confidence"`
	Source     FieldSource `json:"source"`
}

// Equivalent reports normalized equality between two values of the same
// field, ignoring confidence and source.
func (v FieldValue) Equivalent(other FieldValue) bool {
	if v.Name != other.Name {
		return false
	}
	switch v.Name {
	case FieldAmount:
		return v.Amount == other.Amount
	case FieldDueDate:
		return v.Date.Equal(other.Date)
	case FieldPenaltyRisk:
		return v.Risk == other.Risk
	default:
		return normalizeText(v.Text) == normalizeText(other.Text)
	}
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ExtractionResult holds at most one value per field name.
type ExtractionResult map[FieldName]FieldValue

func (er ExtractionResult) Get(name FieldName) (FieldValue, bool) {
	v, ok := er[name]
	return v, ok
}

func (er ExtractionResult) Amount() (int64, bool) {
	v, ok := er[FieldAmount]
	if !ok {
		return 0, false
	}
	return v.Amount, true
}

func (er ExtractionResult) DueDate() (time.Time, bool) {
	v, ok := er[FieldDueDate]
	if !ok {
		return time.Time{}, false
	}
	return v.Date, true
}

func (er ExtractionResult) Organization() (string, bool) {
	v, ok := er[FieldOrganization]
	if !ok {
		return "", false
	}
	return v.Text, true
}

func (er ExtractionResult) Contact() (string, bool) {
	v, ok := er[FieldContact]
	if !ok {
		return "", false
	}
	return v.Text, true
}

// PenaltyRisk returns the extracted risk flag, PenaltyNone when absent.
func (er ExtractionResult) PenaltyRisk() PenaltyRisk {
	v, ok := er[FieldPenaltyRisk]
	if !ok {
		return PenaltyNone
	}
	return v.Risk
}

// FieldDisagreement records a pattern/model conflict kept for observability.
// It is never surfaced as an error.
type FieldDisagreement struct {
	Name        FieldName `json:"name"`
	PatternText string    `json:"pattern_text"`
	ModelText   string    `json:"model_text"`
}
