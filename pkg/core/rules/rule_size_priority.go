package rules

import (
	"fmt"

	"dockbook/pkg/core/capacity"
)

// SizePriorityRule nudges large jobs toward early slots and small jobs
// toward late ones. Advisory only.
type SizePriorityRule struct {
	largeBeforeHour int
	smallAfterHour  int
	penalty         int
}

func NewSizePriorityRule(largeBeforeHour, smallAfterHour, penalty int) *SizePriorityRule {
	return &SizePriorityRule{
		largeBeforeHour: largeBeforeHour,
		smallAfterHour:  smallAfterHour,
		penalty:         penalty,
	}
}

func (r *SizePriorityRule) Name() string {
	return "size-priority"
}

func (r *SizePriorityRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	hour := c.Start.Hour()
	switch c.Size {
	case capacity.SizeL:
		if hour >= r.largeBeforeHour {
			return &Finding{
				Penalty: r.penalty,
				Warning: fmt.Sprintf("large jobs are preferred before %02d:00", r.largeBeforeHour),
			}
		}
	case capacity.SizeS:
		if hour < r.smallAfterHour {
			return &Finding{
				Penalty: r.penalty,
				Warning: fmt.Sprintf("small jobs are preferred at or after %02d:00", r.smallAfterHour),
			}
		}
	}
	return nil
}
