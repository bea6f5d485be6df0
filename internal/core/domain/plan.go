package domain

import "time"

type StepKind string

const (
	StepPay   StepKind = "PAY"
	StepCall  StepKind = "CALL"
	StepVisit StepKind = "VISIT"
	StepWait  StepKind = "WAIT"
	StepNone  StepKind = "NONE"
)

// ActionStep is one entry of the ordered plan. Order is 1-based and
// contiguous within a plan.
type ActionStep struct {
	Order       int        `json:"order"`
	Kind        StepKind   `json:"kind"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

type PlanState string

const (
	StateNoAction         PlanState = "NO_ACTION"
	StateInformational    PlanState = "INFORMATIONAL"
	StatePaymentDue       PlanState = "PAYMENT_DUE"
	StateResponseRequired PlanState = "RESPONSE_REQUIRED"
	StateEscalated        PlanState = "ESCALATED"
)

// ActionPlan is the planner output: a display state, the computed risk and
// the renumbered step sequence. Advisory is set when a low-confidence
// verification step was appended.
type ActionPlan struct {
	State    PlanState    `json:"state"`
	Risk     RiskLevel    `json:"risk"`
	Steps    []ActionStep `json:"steps"`
	Advisory bool         `json:"advisory,omitempty"`
}

// SimplifiedOutput is the plain-language rendering of a plan: one summary
// line plus exactly one easy line per action step.
type SimplifiedOutput struct {
	SummaryOneLine string   `json:"summary_one_line"`
	StepsEasy      []string `json:"steps_easy"`
}
