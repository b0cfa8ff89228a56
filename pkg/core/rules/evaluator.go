package rules

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dockbook/internal/config"
	"dockbook/pkg/core/timeslot"
	"dockbook/pkg/db"
)

// Store provides the appointment reads the evaluator pre-fetches into a
// rule Context.
type Store interface {
	ListDayAppointments(ctx context.Context, date time.Time) ([]db.Appointment, error)
	ListCategoryAppointments(ctx context.Context, category string) ([]db.Appointment, error)
}

// Evaluation is the verdict on one candidate. Allowed is false only
// when a blocking rule fired in enforce mode; the score and warnings
// are always advisory.
type Evaluation struct {
	Allowed    bool
	Score      int
	Warnings   []string
	Suggestion *time.Time
}

// Evaluator runs the enabled advisory rules against candidates. It sits
// alongside admission: a rejection here never touches the hard capacity
// checks, and in advisory mode nothing here blocks anything.
type Evaluator struct {
	cfg    config.RulesConfig
	store  Store
	rules  []Rule
	now    func() time.Time
	logger *zap.Logger
}

// NewEvaluator builds an evaluator with the rules enabled by cfg.
func NewEvaluator(cfg config.RulesConfig, store Store, logger *zap.Logger) *Evaluator {
	e := &Evaluator{cfg: cfg, store: store, now: time.Now, logger: logger}

	p := cfg.Penalties
	if cfg.AvoidConcurrency {
		e.rules = append(e.rules, NewAvoidConcurrencyRule(p.AvoidConcurrency))
	}
	if cfg.MaxSimultaneous {
		e.rules = append(e.rules, NewMaxSimultaneousRule(cfg.MaxSimultaneousCap, p.MaxSimultaneous))
	}
	if cfg.SizePriority {
		e.rules = append(e.rules, NewSizePriorityRule(cfg.PreferredLargeBeforeHour, cfg.PreferredSmallAfterHour, p.SizePriority))
	}
	if cfg.DailyConcentration {
		e.rules = append(e.rules, NewDailyConcentrationRule(cfg.DailyCountThreshold, p.DailyConcentration))
	}
	if cfg.DockDistribution {
		e.rules = append(e.rules, NewDockDistributionRule(cfg.DockBySize, p.DockDistribution))
	}
	if cfg.CategoryPreferredTime {
		e.rules = append(e.rules, NewCategoryPreferredTimeRule(p.CategoryPreferredTime))
	}
	if cfg.MinLeadTime {
		e.rules = append(e.rules, NewMinLeadTimeRule(cfg.MinLeadHours, p.MinLeadTime))
	}
	return e
}

// EvaluateSlot scores a candidate starting from 100 and collects the
// enabled rules' warnings. When enforce mode is on and a blocking rule
// fires, the candidate is rejected and a later conflict-free start
// within the suggestion window is proposed.
func (e *Evaluator) EvaluateSlot(ctx context.Context, c Candidate) (*Evaluation, error) {
	evalCtx, err := e.buildContext(ctx, c)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{Allowed: true, Score: 100}
	blocked := false
	for _, rule := range e.rules {
		finding := rule.Evaluate(evalCtx, c)
		if finding == nil {
			continue
		}
		eval.Score -= finding.Penalty
		if finding.Warning != "" {
			eval.Warnings = append(eval.Warnings, fmt.Sprintf("%s: %s", rule.Name(), finding.Warning))
		}
		if finding.Blocking && e.cfg.Enforce {
			blocked = true
		}
	}
	if eval.Score < 0 {
		eval.Score = 0
	}

	if blocked {
		eval.Allowed = false
		if s := e.suggestTime(evalCtx, c); s != nil {
			eval.Suggestion = s
		}
		e.logger.Debug("Candidate rejected by enforced rules",
			zap.String("date", timeslot.DateKey(c.Date)),
			zap.String("slot_start", c.SlotStart),
			zap.Strings("warnings", eval.Warnings))
	}

	return eval, nil
}

func (e *Evaluator) buildContext(ctx context.Context, c Candidate) (*Context, error) {
	evalCtx := &Context{Now: e.now()}

	day, err := e.store.ListDayAppointments(ctx, c.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day appointments: %w", err)
	}
	evalCtx.DayAppointments = day

	if e.cfg.DailyConcentration {
		evalCtx.NearbyDayCounts = make(map[string]int)
		for offset := -2; offset <= 2; offset++ {
			if offset == 0 {
				continue
			}
			date := c.Date.AddDate(0, 0, offset)
			nearby, err := e.store.ListDayAppointments(ctx, date)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch nearby day appointments: %w", err)
			}
			evalCtx.NearbyDayCounts[timeslot.DateKey(date)] = len(nearby)
		}
	}

	if e.cfg.CategoryPreferredTime && c.Category != "" {
		history, err := e.store.ListCategoryAppointments(ctx, c.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch category history: %w", err)
		}
		evalCtx.CategoryAppointments = history
	}

	return evalCtx, nil
}

// suggestTime steps forward through the suggestion window looking for
// the earliest start that satisfies every blocking rule. Returns nil
// when the window holds no such time.
func (e *Evaluator) suggestTime(evalCtx *Context, c Candidate) *time.Time {
	step := time.Duration(e.cfg.SuggestionStepMinutes) * time.Minute
	window := time.Duration(e.cfg.SuggestionWindowHours) * time.Hour
	if step <= 0 || window <= 0 {
		return nil
	}

	duration := c.End.Sub(c.Start)
	minLead := time.Duration(e.cfg.MinLeadHours) * time.Hour

	// When the lead-time rule is what blocked, the scan starts at the
	// earliest compliant time, snapped up to the step grid.
	base := c.Start
	if e.cfg.MinLeadTime && minLead > 0 {
		if earliest := evalCtx.Now.Add(minLead); earliest.After(base) {
			steps := int64((earliest.Sub(base) + step - 1) / step)
			base = base.Add(time.Duration(steps) * step)
		}
	}

	for offset := time.Duration(0); offset <= window; offset += step {
		start := base.Add(offset)
		if start.Equal(c.Start) {
			continue
		}
		end := start.Add(duration)

		if e.cfg.AvoidConcurrency && overlapCount(evalCtx.DayAppointments, start, end) > 0 {
			continue
		}
		if e.cfg.MaxSimultaneous && e.cfg.MaxSimultaneousCap > 0 &&
			overlapCount(evalCtx.DayAppointments, start, end)+1 >= e.cfg.MaxSimultaneousCap {
			continue
		}
		return &start
	}
	return nil
}
