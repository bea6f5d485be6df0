package usecase

import (
	"fmt"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// ActionPlanner maps (doc type, extracted fields, classifier confidence) to
// an ordered step sequence and a risk level. It is a pure decision table:
// no external calls, same inputs always produce the same plan.
type ActionPlanner struct {
	policy config.Policy
}

func NewActionPlanner(policy config.Policy) *ActionPlanner {
	return &ActionPlanner{policy: policy}
}

// Plan evaluates the transition rules in priority order. An active penalty
// escalates before the payment rule so dunning language can never yield a
// lower risk than the same document without it.
func (p *ActionPlanner) Plan(cls domain.ClassificationResult, er domain.ExtractionResult, now time.Time) domain.ActionPlan {
	rule, _ := p.policy.RuleFor(cls.DocType)

	amount, hasAmount := er.Amount()
	due, hasDue := er.DueDate()
	penalty := er.PenaltyRisk()

	var plan domain.ActionPlan
	switch {
	case rule.Informational && !hasDue && penalty.Rank() < domain.PenaltyMedium.Rank():
		plan = domain.ActionPlan{State: domain.StateNoAction, Risk: domain.RiskLow}
	case penalty == domain.PenaltyHigh:
		plan = domain.ActionPlan{State: domain.StateEscalated, Risk: domain.RiskHigh}
	case hasAmount && hasDue:
		risk := domain.RiskMedium
		if withinWindow(now, due, p.policy.NearTermWindowDays) {
			risk = domain.RiskHigh
		}
		plan = domain.ActionPlan{State: domain.StatePaymentDue, Risk: risk}
	case rule.ResponseRequired && !hasAmount:
		plan = domain.ActionPlan{State: domain.StateResponseRequired, Risk: domain.RiskMedium}
	default:
		plan = domain.ActionPlan{State: domain.StateInformational, Risk: domain.RiskLow}
	}

	plan.Steps = p.renderSteps(plan.State, amount, hasAmount, due, hasDue, er)

	if cls.Confidence < p.policy.LowConfidenceThreshold {
		plan.Risk = plan.Risk.Downgrade()
		plan.Advisory = true
		plan.Steps = append(plan.Steps, domain.ActionStep{
			Kind:        domain.StepCall,
			Description: "문서 내용이 확실하지 않아요. 가까운 주민센터나 보낸 기관에 꼭 확인해 주세요.",
		})
	}

	renumber(plan.Steps)
	return plan
}

// withinWindow reports whether due falls inside the near-term window.
// Already-overdue dates count as near-term: they are the most urgent case.
func withinWindow(now, due time.Time, days int) bool {
	deadline := now.AddDate(0, 0, days)
	return !due.After(deadline)
}

func (p *ActionPlanner) renderSteps(state domain.PlanState, amount int64, hasAmount bool, due time.Time, hasDue bool, er domain.ExtractionResult) []domain.ActionStep {
	contact, hasContact := er.Contact()
	org, hasOrg := er.Organization()
	if !hasOrg {
		org = "보낸 기관"
	}

	var steps []domain.ActionStep
	switch state {
	case domain.StateNoAction:
		steps = append(steps, domain.ActionStep{
			Kind:        domain.StepNone,
			Description: "지금 하실 일은 없어요. 안내문이니 보관만 하세요.",
		})

	case domain.StatePaymentDue:
		desc := fmt.Sprintf("%s원을 %s까지 납부하세요.", formatWon(amount), due.Format("2006년 1월 2일"))
		deadline := due
		steps = append(steps, domain.ActionStep{
			Kind:        domain.StepPay,
			Description: desc,
			Deadline:    &deadline,
		})
		if hasContact {
			steps = append(steps, domain.ActionStep{
				Kind:        domain.StepCall,
				Description: fmt.Sprintf("궁금한 점은 %s(%s)에 전화해서 물어보세요.", org, contact),
			})
		}

	case domain.StateResponseRequired:
		steps = append(steps, domain.ActionStep{
			Kind:        domain.StepVisit,
			Description: "신분증을 가지고 가까운 주민센터(행정복지센터)에 방문하세요.",
		})
		if hasContact {
			steps = append(steps, domain.ActionStep{
				Kind:        domain.StepCall,
				Description: fmt.Sprintf("방문 전에 %s에 전화해서 필요한 서류를 물어보세요.", contact),
			})
		}

	case domain.StateEscalated:
		if hasAmount {
			step := domain.ActionStep{
				Kind:        domain.StepPay,
				Description: fmt.Sprintf("밀린 %s원을 최대한 빨리 납부하세요.", formatWon(amount)),
			}
			if hasDue {
				deadline := due
				step.Deadline = &deadline
			}
			steps = append(steps, step)
		}
		callDesc := fmt.Sprintf("오늘 바로 %s에 전화해서 상황을 확인하세요.", org)
		if hasContact {
			callDesc = fmt.Sprintf("오늘 바로 %s(%s)에 전화해서 상황을 확인하세요.", org, contact)
		}
		steps = append(steps,
			domain.ActionStep{Kind: domain.StepCall, Description: callDesc},
			domain.ActionStep{Kind: domain.StepVisit, Description: "전화가 어려우면 가까운 주민센터에 방문해서 도움을 요청하세요."},
		)

	default: // StateInformational
		steps = append(steps,
			domain.ActionStep{Kind: domain.StepNone, Description: "바로 하실 일은 없어요."},
			domain.ActionStep{Kind: domain.StepWait, Description: "문서는 버리지 말고 보관해 두세요."},
		)
	}
	return steps
}

// renumber rewrites Order as a contiguous 1..N sequence.
func renumber(steps []domain.ActionStep) {
	for i := range steps {
		steps[i].Order = i + 1
	}
}

func formatWon(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digit)
	}
	return string(out)
}
