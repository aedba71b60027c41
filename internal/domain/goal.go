package domain

// ============================================================
// Goals
// ============================================================

type GoalCategory string

const (
	GoalSavings    GoalCategory = "savings"
	GoalDebt       GoalCategory = "debt"
	GoalInvestment GoalCategory = "investment"
	GoalPurchase   GoalCategory = "purchase"
	GoalEmergency  GoalCategory = "emergency"
	GoalRetirement GoalCategory = "retirement"
)

type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalCancelled  GoalStatus = "cancelled"
)

// Goal tracks saving toward TargetAmount. CurrentAmount never exceeds
// TargetAmount; the store rejects writes that would break that.
type Goal struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	TargetAmount  float64      `json:"targetAmount"`
	CurrentAmount float64      `json:"currentAmount"`
	Currency      string       `json:"currency"`
	Deadline      int64        `json:"deadline"`
	Category      GoalCategory `json:"category"`
	Priority      GoalPriority `json:"priority"`
	Status        GoalStatus   `json:"status,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     int64        `json:"createdAt"`
	UpdatedAt     int64        `json:"updatedAt"`
}
