package rules

import (
	"fmt"
	"time"
)

// MinLeadTimeRule fires when the candidate starts with less than the
// configured hours of notice. In enforce mode that rejects the booking.
type MinLeadTimeRule struct {
	minLead time.Duration
	penalty int
}

func NewMinLeadTimeRule(minLeadHours, penalty int) *MinLeadTimeRule {
	return &MinLeadTimeRule{minLead: time.Duration(minLeadHours) * time.Hour, penalty: penalty}
}

func (r *MinLeadTimeRule) Name() string {
	return "min-lead-time"
}

func (r *MinLeadTimeRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	if r.minLead <= 0 {
		return nil
	}
	lead := c.Start.Sub(evalCtx.Now)
	if lead >= r.minLead {
		return nil
	}
	return &Finding{
		Penalty:  r.penalty,
		Warning:  fmt.Sprintf("only %s notice, %s required", lead.Round(time.Minute), r.minLead),
		Blocking: true,
	}
}
