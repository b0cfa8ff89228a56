package rules

import "fmt"

// MaxSimultaneousRule fires when admitting the candidate would bring
// the concurrent overlap count up to the configured cap.
type MaxSimultaneousRule struct {
	cap     int
	penalty int
}

func NewMaxSimultaneousRule(cap, penalty int) *MaxSimultaneousRule {
	return &MaxSimultaneousRule{cap: cap, penalty: penalty}
}

func (r *MaxSimultaneousRule) Name() string {
	return "max-simultaneous"
}

func (r *MaxSimultaneousRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	if r.cap <= 0 {
		return nil
	}
	concurrent := overlapCount(evalCtx.DayAppointments, c.Start, c.End) + 1
	if concurrent < r.cap {
		return nil
	}
	return &Finding{
		Penalty:  r.penalty,
		Warning:  fmt.Sprintf("admitting would mean %d simultaneous appointments (cap %d)", concurrent, r.cap),
		Blocking: true,
	}
}
