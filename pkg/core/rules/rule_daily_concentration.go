package rules

import (
	"fmt"

	"dockbook/pkg/core/timeslot"
)

// DailyConcentrationRule warns when a day's appointment count passes
// the threshold and names a lighter day within two days either side.
type DailyConcentrationRule struct {
	threshold int
	penalty   int
}

func NewDailyConcentrationRule(threshold, penalty int) *DailyConcentrationRule {
	return &DailyConcentrationRule{threshold: threshold, penalty: penalty}
}

func (r *DailyConcentrationRule) Name() string {
	return "daily-concentration"
}

func (r *DailyConcentrationRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	if r.threshold <= 0 {
		return nil
	}
	count := len(evalCtx.DayAppointments) + 1
	if count <= r.threshold {
		return nil
	}

	warning := fmt.Sprintf("day already carries %d appointments (threshold %d)", count-1, r.threshold)
	if lighter := r.lighterDay(evalCtx, c); lighter != "" {
		warning += fmt.Sprintf(", %s is lighter", lighter)
	}
	return &Finding{Penalty: r.penalty, Warning: warning}
}

// lighterDay returns the least-loaded date key within two days of the
// candidate, or "" when none improves on the candidate's day.
func (r *DailyConcentrationRule) lighterDay(evalCtx *Context, c Candidate) string {
	best := ""
	bestCount := len(evalCtx.DayAppointments)
	for offset := -2; offset <= 2; offset++ {
		if offset == 0 {
			continue
		}
		key := timeslot.DateKey(c.Date.AddDate(0, 0, offset))
		if count, ok := evalCtx.NearbyDayCounts[key]; ok && count < bestCount {
			best = key
			bestCount = count
		}
	}
	return best
}
