package capacity

import "time"

// Size tiers for appointments. The tier is derived from duration and
// fixes the points an appointment consumes; the mapping is core policy,
// not runtime configuration.
const (
	SizeS = "S"
	SizeM = "M"
	SizeL = "L"
)

// PointsForDuration maps an appointment duration to its size tier and
// point cost: at most 30 minutes is S (1 point), at most 90 minutes is
// M (2 points), anything longer is L (3 points).
func PointsForDuration(d time.Duration) (size string, points int) {
	switch {
	case d <= 30*time.Minute:
		return SizeS, 1
	case d <= 90*time.Minute:
		return SizeM, 2
	default:
		return SizeL, 3
	}
}

// PointsForSize returns the point cost of a size tier, or 0 for an
// unknown tier.
func PointsForSize(size string) int {
	switch size {
	case SizeS:
		return 1
	case SizeM:
		return 2
	case SizeL:
		return 3
	default:
		return 0
	}
}
