package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"dockbook/internal/config"
)

type closureRule struct {
	rule   *rrule.RRule
	reason string
}

// Closures holds the parsed recurring closure rules. Dates matched by
// any rule are closed: every slot reports zero points and zero docks.
type Closures struct {
	rules []closureRule
}

// ParseClosures parses the configured closure RRULEs once so the
// resolver does not re-parse on every lookup.
func ParseClosures(rules []config.ClosureRule) (*Closures, error) {
	parsed := make([]closureRule, 0, len(rules))
	for _, r := range rules {
		rule, err := rrule.StrToRRule(r.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid closure rrule %q: %w", r.RRule, err)
		}
		parsed = append(parsed, closureRule{rule: rule, reason: r.Reason})
	}
	return &Closures{rules: parsed}, nil
}

// Match reports whether date falls on a closure day, returning the
// closure reason of the first matching rule. Recurrences are evaluated
// on the calendar date regardless of the date's location.
func (c *Closures) Match(date time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)
	for _, r := range c.rules {
		if len(r.rule.Between(dayStart, dayEnd, true)) > 0 {
			return r.reason, true
		}
	}
	return "", false
}
