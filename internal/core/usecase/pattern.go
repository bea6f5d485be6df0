package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

type amountMatcher struct {
	re         *regexp.Regexp
	confidence float64
}

type dateMatcher struct {
	// groups 1..3 are year, month, day
	re         *regexp.Regexp
	confidence float64
}

type textMatcher struct {
	re         *regexp.Regexp
	confidence float64
}

// PatternExtractor applies a fixed table of deterministic field matchers to
// raw text. It never fails and never calls out; a field with no match is
// simply absent from the output.
type PatternExtractor struct {
	policy config.Policy

	amounts  []amountMatcher
	dates    []dateMatcher
	contacts []textMatcher
	accounts []textMatcher
}

func NewPatternExtractor(policy config.Policy) *PatternExtractor {
	return &PatternExtractor{
		policy: policy,
		amounts: []amountMatcher{
			{regexp.MustCompile(`납부금액[:\s]*(\d{1,3}(?:,\d{3})*)\s*원`), 0.95},
			{regexp.MustCompile(`합계[:\s]*(\d{1,3}(?:,\d{3})*)\s*원`), 0.90},
			{regexp.MustCompile(`총액[:\s]*(\d{1,3}(?:,\d{3})*)\s*원`), 0.90},
			{regexp.MustCompile(`금\s*(\d{1,3}(?:,\d{3})*)\s*원`), 0.85},
			{regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)\s*원`), 0.80},
			{regexp.MustCompile(`₩\s*(\d{1,3}(?:,\d{3})*)`), 0.80},
		},
		dates: []dateMatcher{
			{regexp.MustCompile(`납부기한[:\s]*(\d{4})[-./년]\s*(\d{1,2})[-./월]\s*(\d{1,2})일?`), 0.95},
			{regexp.MustCompile(`마감일[:\s]*(\d{4})[-./](\d{1,2})[-./](\d{1,2})`), 0.90},
			{regexp.MustCompile(`기한[:\s]*(\d{4})[-./](\d{1,2})[-./](\d{1,2})`), 0.85},
			{regexp.MustCompile(`(\d{4})[-./년]\s*(\d{1,2})[-./월]\s*(\d{1,2})일?`), 0.75},
		},
		contacts: []textMatcher{
			{regexp.MustCompile(`(?:전화|연락처|문의)[:\s]*(0\d{1,2}[-)\s]?\d{3,4}[-\s]?\d{4})`), 0.90},
			{regexp.MustCompile(`(?:전화|연락처|문의)[:\s]*(1\d{3}[-\s]?\d{4})`), 0.90},
			{regexp.MustCompile(`(?:전화|연락처|문의)[:\s]*(1\d{3})\b`), 0.85},
			{regexp.MustCompile(`\b(0\d{1,2}[-)\s]?\d{3,4}[-\s]?\d{4})\b`), 0.70},
		},
		accounts: []textMatcher{
			{regexp.MustCompile(`가상계좌[:\s]*(\d[\d\-\s]{6,24}\d)`), 0.90},
			{regexp.MustCompile(`납부번호[:\s]*(\d[\d\-\s]{6,24}\d)`), 0.90},
			{regexp.MustCompile(`계좌(?:번호)?[:\s]*(\d[\d\-\s]{6,24}\d)`), 0.80},
		},
	}
}

// Extract is pure: the same text always yields the same field set. Matchers
// run in fixed priority order and the first hit wins per field.
func (p *PatternExtractor) Extract(text string) []domain.FieldValue {
	var out []domain.FieldValue

	if v, ok := p.matchAmount(text); ok {
		out = append(out, v)
	}
	if v, ok := p.matchDueDate(text); ok {
		out = append(out, v)
	}
	if v, ok := p.matchOrganization(text); ok {
		out = append(out, v)
	}
	if v, ok := p.matchPenalty(text); ok {
		out = append(out, v)
	}
	if v, ok := p.matchText(text, p.contacts, domain.FieldContact); ok {
		out = append(out, v)
	}
	if v, ok := p.matchText(text, p.accounts, domain.FieldAccountNumber); ok {
		out = append(out, v)
	}
	return out
}

func (p *PatternExtractor) matchAmount(text string) (domain.FieldValue, bool) {
	for _, m := range p.amounts {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		amount, err := parseWon(groups[1])
		if err != nil {
			continue
		}
		return domain.FieldValue{
			Name:       domain.FieldAmount,
			Text:       groups[1] + "원",
			Amount:     amount,
			Confidence: m.confidence,
			Source:     domain.SourcePattern,
		}, true
	}
	return domain.FieldValue{}, false
}

func (p *PatternExtractor) matchDueDate(text string) (domain.FieldValue, bool) {
	for _, m := range p.dates {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		date, ok := parseCalendarDate(groups[1], groups[2], groups[3])
		if !ok {
			continue
		}
		return domain.FieldValue{
			Name:       domain.FieldDueDate,
			Text:       date.Format("2006-01-02"),
			Date:       date,
			Confidence: m.confidence,
			Source:     domain.SourcePattern,
		}, true
	}
	return domain.FieldValue{}, false
}

func (p *PatternExtractor) matchOrganization(text string) (domain.FieldValue, bool) {
	best := ""
	for _, org := range p.policy.Organizations {
		if strings.Contains(text, org) && len(org) > len(best) {
			best = org
		}
	}
	if best == "" {
		return domain.FieldValue{}, false
	}
	return domain.FieldValue{
		Name:       domain.FieldOrganization,
		Text:       best,
		Confidence: 0.90,
		Source:     domain.SourcePattern,
	}, true
}

func (p *PatternExtractor) matchPenalty(text string) (domain.FieldValue, bool) {
	for _, kw := range p.policy.PenaltyKeywordsHigh {
		if strings.Contains(text, kw) {
			return domain.FieldValue{
				Name:       domain.FieldPenaltyRisk,
				Text:       kw,
				Risk:       domain.PenaltyHigh,
				Confidence: 0.95,
				Source:     domain.SourcePattern,
			}, true
		}
	}
	for _, kw := range p.policy.PenaltyKeywordsMedium {
		if strings.Contains(text, kw) {
			return domain.FieldValue{
				Name:       domain.FieldPenaltyRisk,
				Text:       kw,
				Risk:       domain.PenaltyMedium,
				Confidence: 0.85,
				Source:     domain.SourcePattern,
			}, true
		}
	}
	return domain.FieldValue{}, false
}

func (p *PatternExtractor) matchText(text string, matchers []textMatcher, name domain.FieldName) (domain.FieldValue, bool) {
	for _, m := range matchers {
		groups := m.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		return domain.FieldValue{
			Name:       name,
			Text:       normalizeDigits(groups[1]),
			Confidence: m.confidence,
			Source:     domain.SourcePattern,
		}, true
	}
	return domain.FieldValue{}, false
}

// parseWon normalizes a comma-grouped amount to integer won.
func parseWon(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}

func parseCalendarDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// reject normalized overflow like Feb 30
	if date.Day() != d || date.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return date, true
}

// normalizeDigits keeps digits and collapses separators to single dashes,
// so "02) 123 4567" and "02-123-4567" compare equal.
func normalizeDigits(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == ')' || r == '.':
			pendingDash = true
		}
	}
	return b.String()
}
