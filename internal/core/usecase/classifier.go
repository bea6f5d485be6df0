package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
)

// Classifier assigns a doc-type label and confidence. Stage 1 is keyword
// rule scoring; stage 2 falls back to the generative model when no rule
// clears the policy threshold. A failed fallback degrades to UNKNOWN rather
// than failing the pipeline.
type Classifier struct {
	policy    config.Policy
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewClassifier(policy config.Policy, generator ports.TextGenerator, timeout time.Duration) *Classifier {
	return &Classifier{
		policy:    policy,
		generator: generator,
		timeout:   timeout,
	}
}

// Classify returns the classification and whether the model fallback
// degraded to UNKNOWN.
func (c *Classifier) Classify(ctx context.Context, text string) (domain.ClassificationResult, bool) {
	if result, ok := c.classifyByRules(text); ok {
		return result, false
	}

	result, err := c.classifyByModel(ctx, text)
	if err != nil {
		slog.Warn("classifier_model_fallback_failed", "error", err)
		return domain.ClassificationResult{
			DocType:     domain.DocTypeUnknown,
			DocTypeName: "미확인 문서",
			Confidence:  0,
			Method:      domain.MethodRule,
		}, true
	}
	return result, false
}

type ruleScore struct {
	rule         config.DocTypeRule
	score        float64
	longestMatch int
}

func (c *Classifier) classifyByRules(text string) (domain.ClassificationResult, bool) {
	var best *ruleScore
	for _, rule := range c.policy.DocTypes {
		if len(rule.Keywords) == 0 {
			continue
		}
		matched := 0
		longest := 0
		for _, kw := range rule.Keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			matched++
			if n := utf8.RuneCountInString(kw); n > longest {
				longest = n
			}
		}
		if matched == 0 {
			continue
		}
		candidate := ruleScore{
			rule:         rule,
			score:        float64(matched) / float64(len(rule.Keywords)),
			longestMatch: longest,
		}
		if best == nil || candidate.beats(*best) {
			b := candidate
			best = &b
		}
	}

	if best == nil || best.score < c.policy.RuleConfidenceThreshold {
		return domain.ClassificationResult{}, false
	}
	return domain.ClassificationResult{
		DocType:     best.rule.Code,
		DocTypeName: best.rule.Name,
		Confidence:  best.score,
		Method:      domain.MethodRule,
	}, true
}

// beats prefers the higher score; on a tie the type with the more specific
// (longer) matched phrase wins.
func (s ruleScore) beats(other ruleScore) bool {
	if s.score != other.score {
		return s.score > other.score
	}
	return s.longestMatch > other.longestMatch
}

func (c *Classifier) classifyByModel(ctx context.Context, text string) (domain.ClassificationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.generator.GenerateJSON(callCtx, buildClassificationPrompt(c.policy.DocTypes, text))
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	var parsed struct {
		DocType    string  `json:"doc_type"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.ClassificationResult{}, domain.NewModelError(
			domain.ModelInvalidResponse, "classify", fmt.Errorf("parse classification json: %w", err))
	}

	rule, ok := c.policy.RuleFor(domain.DocType(strings.TrimSpace(parsed.DocType)))
	if !ok {
		return domain.ClassificationResult{}, domain.NewModelError(
			domain.ModelInvalidResponse, "classify", fmt.Errorf("unrecognized label %q", parsed.DocType))
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return domain.ClassificationResult{
		DocType:     rule.Code,
		DocTypeName: rule.Name,
		Confidence:  confidence,
		Method:      domain.MethodModel,
	}, nil
}
