package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
)

// HybridExtractor merges deterministic pattern extraction with a
// generative-model pass. The pattern source is authoritative on conflicts;
// the model fills gaps the patterns cannot see.
type HybridExtractor struct {
	policy    config.Policy
	pattern   *PatternExtractor
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewHybridExtractor(policy config.Policy, pattern *PatternExtractor, generator ports.TextGenerator, timeout time.Duration) *HybridExtractor {
	return &HybridExtractor{
		policy:    policy,
		pattern:   pattern,
		generator: generator,
		timeout:   timeout,
	}
}

// Extract runs both passes in parallel and resolves conflicts per field.
// The returned bool reports whether the model pass degraded; a missing
// required field is not a failure and simply stays absent.
func (h *HybridExtractor) Extract(ctx context.Context, text string, cls domain.ClassificationResult) (domain.ExtractionResult, []domain.FieldDisagreement, bool) {
	var (
		patternValues []domain.FieldValue
		modelValues   []domain.FieldValue
		modelErr      error
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		patternValues = h.pattern.Extract(text)
		return nil
	})
	group.Go(func() error {
		modelValues, modelErr = h.extractByModel(groupCtx, text, cls)
		return nil
	})
	_ = group.Wait()

	degraded := modelErr != nil
	if degraded {
		slog.Warn("extraction_model_degraded", "doc_type", cls.DocType, "error", modelErr)
	}

	result, disagreements := h.merge(patternValues, modelValues)
	return result, disagreements, degraded
}

func (h *HybridExtractor) merge(patternValues, modelValues []domain.FieldValue) (domain.ExtractionResult, []domain.FieldDisagreement) {
	byName := func(values []domain.FieldValue) map[domain.FieldName]domain.FieldValue {
		m := make(map[domain.FieldName]domain.FieldValue, len(values))
		for _, v := range values {
			m[v.Name] = v
		}
		return m
	}
	patterns := byName(patternValues)
	models := byName(modelValues)

	names := make(map[domain.FieldName]struct{}, len(patterns)+len(models))
	for name := range patterns {
		names[name] = struct{}{}
	}
	for name := range models {
		names[name] = struct{}{}
	}

	result := make(domain.ExtractionResult, len(names))
	var disagreements []domain.FieldDisagreement

	for name := range names {
		p, hasPattern := patterns[name]
		m, hasModel := models[name]

		switch {
		case hasPattern && p.Confidence >= h.policy.PatternConfidenceThreshold:
			result[name] = p
		case !hasPattern && hasModel:
			result[name] = m
		case hasPattern && hasModel && p.Equivalent(m):
			merged := p
			merged.Source = domain.SourceMerged
			if m.Confidence > merged.Confidence {
				merged.Confidence = m.Confidence
			}
			result[name] = merged
		case hasPattern && hasModel:
			// deterministic source wins, but the conflict caps confidence
			kept := p
			kept.Source = domain.SourceMerged
			kept.Confidence = p.Confidence * h.policy.DisagreementPenalty
			result[name] = kept
			disagreements = append(disagreements, domain.FieldDisagreement{
				Name:        name,
				PatternText: p.Text,
				ModelText:   m.Text,
			})
		case hasPattern:
			result[name] = p
		}
	}
	return result, disagreements
}

func (h *HybridExtractor) extractByModel(ctx context.Context, text string, cls domain.ClassificationResult) ([]domain.FieldValue, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	raw, err := h.generator.GenerateJSON(callCtx, buildExtractionPrompt(cls.DocType, cls.DocTypeName, text))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Amount        *string `json:"amount"`
		DueDate       *string `json:"due_date"`
		Organization  *string `json:"organization"`
		PenaltyRisk   *string `json:"penalty_risk"`
		Contact       *string `json:"contact"`
		AccountNumber *string `json:"account_number"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, domain.NewModelError(
			domain.ModelInvalidResponse, "extract", fmt.Errorf("parse extraction json: %w", err))
	}

	confidence := h.policy.ModelFieldConfidence
	var out []domain.FieldValue

	if s := deref(parsed.Amount); s != "" {
		if amount, err := parseWon(stripAmountUnit(s)); err == nil {
			out = append(out, domain.FieldValue{
				Name: domain.FieldAmount, Text: s, Amount: amount,
				Confidence: confidence, Source: domain.SourceModel,
			})
		}
	}
	if s := deref(parsed.DueDate); s != "" {
		if date, err := time.Parse("2006-01-02", s); err == nil {
			out = append(out, domain.FieldValue{
				Name: domain.FieldDueDate, Text: s, Date: date,
				Confidence: confidence, Source: domain.SourceModel,
			})
		}
	}
	if s := deref(parsed.Organization); s != "" {
		out = append(out, domain.FieldValue{
			Name: domain.FieldOrganization, Text: s,
			Confidence: confidence, Source: domain.SourceModel,
		})
	}
	if s := deref(parsed.PenaltyRisk); s != "" {
		if risk, ok := domain.ParsePenaltyRisk(s); ok && risk != domain.PenaltyNone {
			out = append(out, domain.FieldValue{
				Name: domain.FieldPenaltyRisk, Text: s, Risk: risk,
				Confidence: confidence, Source: domain.SourceModel,
			})
		}
	}
	if s := deref(parsed.Contact); s != "" {
		out = append(out, domain.FieldValue{
			Name: domain.FieldContact, Text: normalizeDigits(s),
			Confidence: confidence, Source: domain.SourceModel,
		})
	}
	if s := deref(parsed.AccountNumber); s != "" {
		out = append(out, domain.FieldValue{
			Name: domain.FieldAccountNumber, Text: normalizeDigits(s),
			Confidence: confidence, Source: domain.SourceModel,
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	trimmed := strings.TrimSpace(*s)
	if strings.EqualFold(trimmed, "null") || trimmed == "없음" {
		return ""
	}
	return trimmed
}

func stripAmountUnit(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "원")
	s = strings.TrimPrefix(s, "₩")
	return strings.TrimSpace(s)
}
