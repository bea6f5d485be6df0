package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// DocTypeRule is one row of the classifier keyword table plus the planner
// attributes of that doc type.
type DocTypeRule struct {
	Code             domain.DocType `yaml:"code"`
	Name             string         `yaml:"name"`
	Keywords         []string       `yaml:"keywords"`
	Informational    bool           `yaml:"informational"`
	ResponseRequired bool           `yaml:"response_required"`
}

// Policy is the immutable decision configuration of the pipeline: keyword
// tables and thresholds that are policy, not code. It is loaded once at
// startup and passed into each component at construction.
type Policy struct {
	RuleConfidenceThreshold    float64 `yaml:"rule_confidence_threshold"`
	PatternConfidenceThreshold float64 `yaml:"pattern_confidence_threshold"`
	LowConfidenceThreshold     float64 `yaml:"low_confidence_threshold"`
	ModelFieldConfidence       float64 `yaml:"model_field_confidence"`
	DisagreementPenalty        float64 `yaml:"disagreement_penalty"`
	NearTermWindowDays         int     `yaml:"near_term_window_days"`
	NearDuplicateSimilarity    float64 `yaml:"near_duplicate_similarity"`
	MaxLineRunes               int     `yaml:"max_line_runes"`

	DocTypes              []DocTypeRule `yaml:"doc_types"`
	Organizations         []string      `yaml:"organizations"`
	PenaltyKeywordsHigh   []string      `yaml:"penalty_keywords_high"`
	PenaltyKeywordsMedium []string      `yaml:"penalty_keywords_medium"`
	JargonBlocklist       []string      `yaml:"jargon_blocklist"`
}

func DefaultPolicy() Policy {
	return Policy{
		RuleConfidenceThreshold:    0.75,
		PatternConfidenceThreshold: 0.80,
		LowConfidenceThreshold:     0.60,
		ModelFieldConfidence:       0.70,
		DisagreementPenalty:        0.50,
		NearTermWindowDays:         14,
		NearDuplicateSimilarity:    0.85,
		MaxLineRunes:               40,

		DocTypes: []DocTypeRule{
			{Code: domain.DocTypeHealthInsuranceBill, Name: "건강보험료 납부 고지서",
				Keywords: []string{"건강보험", "보험료", "납부", "국민건강보험공단"}},
			{Code: domain.DocTypePensionNotice, Name: "국민연금 안내문",
				Keywords: []string{"국민연금", "연금공단", "수급", "지급"}, Informational: true},
			{Code: domain.DocTypeNationalTaxNotice, Name: "세금 통지서",
				Keywords: []string{"국세청", "세금", "소득세", "부가가치세", "종합소득", "체납"}},
			{Code: domain.DocTypeLocalTaxBill, Name: "지방세 고지서",
				Keywords: []string{"지방세", "재산세", "자동차세", "주민세"}},
			{Code: domain.DocTypeCommunityNotice, Name: "주민센터 안내문",
				Keywords: []string{"주민센터", "동사무소", "행정복지센터", "민원"}, Informational: true},
			{Code: domain.DocTypeWelfareNotice, Name: "복지 안내문",
				Keywords: []string{"복지", "수급", "기초생활", "차상위", "지원금"}, ResponseRequired: true},
			{Code: domain.DocTypeUtilityBill, Name: "공과금 고지서",
				Keywords: []string{"전기요금", "가스요금", "수도요금", "관리비", "아파트"}},
			{Code: domain.DocTypeBankNotice, Name: "금융기관 통지서",
				Keywords: []string{"은행", "대출", "이자", "예금", "적금", "카드"}},
			{Code: domain.DocTypeCourtNotice, Name: "법원 통지서",
				Keywords: []string{"법원", "소송", "재판", "출석", "판결"}, ResponseRequired: true},
			{Code: domain.DocTypeOtherPublic, Name: "기타 공공문서", Keywords: nil},
		},
		Organizations: []string{
			"국민건강보험공단", "국민연금공단", "국세청", "행정복지센터",
			"한국전력공사", "서울특별시", "법원",
		},
		PenaltyKeywordsHigh: []string{
			"독촉", "독촉장", "최고장", "체납", "연체", "미납", "압류",
		},
		PenaltyKeywordsMedium: []string{
			"과태료", "가산금", "기한 경과", "기한 초과",
		},
		JargonBlocklist: []string{
			"과세표준", "납부의무자", "체납처분", "독촉장", "가산금",
			"압류", "행정처분", "불이행",
		},
	}
}

// LoadPolicy returns the default policy overlaid with the YAML file at
// path. An empty path keeps the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

func (p Policy) Validate() error {
	inUnit := func(name string, v float64) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("policy %s must be in (0,1], got %v", name, v)
		}
		return nil
	}
	if err := inUnit("rule_confidence_threshold", p.RuleConfidenceThreshold); err != nil {
		return err
	}
	if err := inUnit("pattern_confidence_threshold", p.PatternConfidenceThreshold); err != nil {
		return err
	}
	if err := inUnit("low_confidence_threshold", p.LowConfidenceThreshold); err != nil {
		return err
	}
	if err := inUnit("near_duplicate_similarity", p.NearDuplicateSimilarity); err != nil {
		return err
	}
	if p.NearTermWindowDays <= 0 {
		return fmt.Errorf("policy near_term_window_days must be positive, got %d", p.NearTermWindowDays)
	}
	if len(p.DocTypes) == 0 {
		return fmt.Errorf("policy doc_types must not be empty")
	}
	return nil
}

// RuleFor returns the doc-type row for code, or false for unknown types.
func (p Policy) RuleFor(code domain.DocType) (DocTypeRule, bool) {
	for _, rule := range p.DocTypes {
		if rule.Code == code {
			return rule, true
		}
	}
	return DocTypeRule{}, false
}
