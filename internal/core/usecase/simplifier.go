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

// Simplifier rewrites the plan in controlled-vocabulary plain language.
// Model output must satisfy the shape contract (one line per step,
// non-empty, no blocklisted jargon); otherwise the deterministic template
// renderer takes over. The simplifier never fails the pipeline.
type Simplifier struct {
	policy    config.Policy
	generator ports.TextGenerator
	timeout   time.Duration
}

func NewSimplifier(policy config.Policy, generator ports.TextGenerator, timeout time.Duration) *Simplifier {
	return &Simplifier{
		policy:    policy,
		generator: generator,
		timeout:   timeout,
	}
}

// Simplify returns the plain-language output and whether it degraded to
// the template renderer because of a model failure or contract violation.
func (s *Simplifier) Simplify(ctx context.Context, cls domain.ClassificationResult, er domain.ExtractionResult, plan domain.ActionPlan) (domain.SimplifiedOutput, bool) {
	out, err := s.simplifyByModel(ctx, cls, er, plan.Steps)
	if err == nil {
		return out, false
	}
	slog.Warn("simplifier_fallback", "doc_type", cls.DocType, "error", err)
	return s.renderTemplate(plan), true
}

func (s *Simplifier) simplifyByModel(ctx context.Context, cls domain.ClassificationResult, er domain.ExtractionResult, steps []domain.ActionStep) (domain.SimplifiedOutput, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(callCtx, buildSimplifyPrompt(s.policy, cls, er, steps))
	if err != nil {
		return domain.SimplifiedOutput{}, err
	}

	var out domain.SimplifiedOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return domain.SimplifiedOutput{}, fmt.Errorf("parse simplified json: %w", err)
	}
	if err := s.validateShape(out, len(steps)); err != nil {
		return domain.SimplifiedOutput{}, err
	}
	return out, nil
}

func (s *Simplifier) validateShape(out domain.SimplifiedOutput, stepCount int) error {
	if strings.TrimSpace(out.SummaryOneLine) == "" {
		return fmt.Errorf("shape: empty summary line")
	}
	if len(out.StepsEasy) != stepCount {
		return fmt.Errorf("shape: %d easy lines for %d steps", len(out.StepsEasy), stepCount)
	}
	for i, line := range out.StepsEasy {
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("shape: empty line %d", i+1)
		}
		for _, term := range s.policy.JargonBlocklist {
			if strings.Contains(line, term) {
				return fmt.Errorf("shape: banned term %q in line %d", term, i+1)
			}
		}
	}
	return nil
}

// renderTemplate is the deterministic fallback keyed by plan state and
// step kind. Step descriptions are already written in plain language by
// the planner templates; they only need trimming to the line limit.
func (s *Simplifier) renderTemplate(plan domain.ActionPlan) domain.SimplifiedOutput {
	summary := map[domain.PlanState]string{
		domain.StateNoAction:         "지금 하실 일은 없어요.",
		domain.StateInformational:    "읽어 보기만 하면 되는 안내문이에요.",
		domain.StatePaymentDue:       "돈을 내야 하는 문서예요.",
		domain.StateResponseRequired: "확인하고 답해야 하는 문서예요.",
		domain.StateEscalated:        "빨리 처리해야 하는 중요한 문서예요.",
	}[plan.State]
	if summary == "" {
		summary = "확인이 필요한 문서예요."
	}

	lines := make([]string, len(plan.Steps))
	for i, step := range plan.Steps {
		lines[i] = trimLine(step.Description, s.policy.MaxLineRunes)
	}
	return domain.SimplifiedOutput{
		SummaryOneLine: summary,
		StepsEasy:      lines,
	}
}

func trimLine(line string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(line) <= maxRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:maxRunes-1]) + "…"
}
