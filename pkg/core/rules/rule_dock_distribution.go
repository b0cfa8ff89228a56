package rules

import "fmt"

// DockDistributionRule prefers a configured dock per size tier, so
// large trucks land on the bays equipped for them. Advisory only.
type DockDistributionRule struct {
	dockBySize map[string]string
	penalty    int
}

func NewDockDistributionRule(dockBySize map[string]string, penalty int) *DockDistributionRule {
	return &DockDistributionRule{dockBySize: dockBySize, penalty: penalty}
}

func (r *DockDistributionRule) Name() string {
	return "dock-distribution"
}

func (r *DockDistributionRule) Evaluate(evalCtx *Context, c Candidate) *Finding {
	if c.DockCode == "" {
		return nil
	}
	preferred, ok := r.dockBySize[c.Size]
	if !ok || preferred == c.DockCode {
		return nil
	}
	return &Finding{
		Penalty: r.penalty,
		Warning: fmt.Sprintf("dock %s preferred for size %s jobs, got %s", preferred, c.Size, c.DockCode),
	}
}
