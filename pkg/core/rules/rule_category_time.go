package rules

import "fmt"

// CategoryPreferredTimeRule nudges a category toward the hour it has
// historically booked the most. With no history the rule stays silent.
type CategoryPreferredTimeRule struct {
	penalty int
}

func NewCategoryPreferredTimeRule(penalty int) *CategoryPreferredTimeRule {
	return &CategoryPreferredTimeRule{penalty: penalty}
}

func (r *CategoryPreferredTimeRule) Name() string {
	return "category-preferred-time"
}

func (r *CategoryPreferredTimeRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	if c.Category == "" || len(evalCtx.CategoryAppointments) == 0 {
		return nil
	}

	preferred, ok := preferredHour(evalCtx)
	if !ok {
		return nil
	}

	hour := c.Start.Hour()
	if hour == preferred || hour == preferred-1 || hour == preferred+1 {
		return nil
	}
	return &Finding{
		Penalty: r.penalty,
		Warning: fmt.Sprintf("category %q usually books around %02d:00", c.Category, preferred),
	}
}

// preferredHour is the modal start hour of the category's history; ties
// resolve to the earlier hour.
func preferredHour(evalCtx *Context) (int, bool) {
	counts := make(map[int]int)
	for _, a := range evalCtx.CategoryAppointments {
		counts[a.Start.Hour()]++
	}
	best, bestCount := 0, 0
	for hour := 0; hour < 24; hour++ {
		if counts[hour] > bestCount {
			best, bestCount = hour, counts[hour]
		}
	}
	return best, bestCount > 0
}
