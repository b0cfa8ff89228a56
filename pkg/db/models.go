package db

import "time"

// Appointment confirmation statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// SlotTemplate is a recurring weekly time window with a workload budget.
// Weekday follows time.Weekday numbering (0 = Sunday).
type SlotTemplate struct {
	ID        string
	Weekday   int
	StartTime string // "15:04"
	EndTime   string // "15:04"
	MaxPoints int
	Active    bool
	CreatedAt time.Time
}

// SlotOverride replaces a template's budget for a specific date or date
// range. A nil StartTime means the override applies to every slot of the
// day; otherwise it targets the slot starting at that clock time.
type SlotOverride struct {
	ID        string
	Date      time.Time
	DateEnd   *time.Time // inclusive; nil for a single day
	StartTime *string    // "15:04"; nil = whole day
	MaxPoints int
	Reason    string
	CreatedAt time.Time
}

// Dock is a physical loading bay.
type Dock struct {
	ID        string
	Name      string
	Code      string
	SortOrder int
	Active    bool
	CreatedAt time.Time
}

// DockSlotAvailability declares whether a dock serves a recurring slot.
type DockSlotAvailability struct {
	DockID     string
	TemplateID string
	IsActive   bool
}

// DockOverride enables or disables a dock for a specific date or date
// range, taking precedence over DockSlotAvailability.
type DockOverride struct {
	ID        string
	DockID    string
	Date      time.Time
	DateEnd   *time.Time // inclusive; nil for a single day
	IsActive  bool
	CreatedAt time.Time
}

// Appointment is an admitted reservation against a slot and a dock.
// SlotDate is the local-calendar-midnight anchor of Start; SlotStartTime
// is the owning slot's clock time. Check-in/out timestamps are recorded
// but never feed back into admission decisions.
type Appointment struct {
	ID            string
	ProviderName  string
	Category      string
	Start         time.Time
	End           time.Time
	SlotDate      time.Time
	SlotStartTime string // "15:04"
	Size          string // "S", "M" or "L"
	PointsUsed    int
	DockID        string
	Status        string
	ExternalRef   string
	CheckedInAt   *time.Time
	CheckedOutAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cancelled reports whether the appointment no longer consumes points or
// dock time.
func (a *Appointment) Cancelled() bool {
	return a.Status == StatusCancelled
}
