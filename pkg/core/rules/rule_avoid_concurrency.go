package rules

import "fmt"

// AvoidConcurrencyRule penalizes any temporal overlap with an existing
// appointment. In enforce mode an overlap rejects the candidate and the
// evaluator proposes a lower-concurrency time instead.
type AvoidConcurrencyRule struct {
	penalty int
}

func NewAvoidConcurrencyRule(penalty int) *AvoidConcurrencyRule {
	return &AvoidConcurrencyRule{penalty: penalty}
}

func (r *AvoidConcurrencyRule) Name() string {
	return "avoid-concurrency"
}

func (r *AvoidConcurrencyRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	overlaps := overlapCount(evalCtx.DayAppointments, c.Start, c.End)
	if overlaps == 0 {
		return nil
	}
	return &Finding{
		Penalty:  r.penalty,
		Warning:  fmt.Sprintf("%d appointment(s) overlap the requested window", overlaps),
		Blocking: true,
	}
}
