package models

// SplitType identifies the policy used to partition an expense amount
// among group members. Values are persisted as integer codes, so the
// numeric order here is part of the on-disk format.
type SplitType int

const (
	// SplitEqual divides the amount evenly among all members.
	SplitEqual SplitType = iota

	// SplitPercent assigns each member a percentage. Declared for the
	// wire format; the calculator does not implement it yet.
	SplitPercent

	// SplitAmount assigns each member an explicit amount. Declared for
	// the wire format; the calculator does not implement it yet.
	SplitAmount
)

// String returns the policy name for logging.
func (s SplitType) String() string {
	switch s {
	case SplitEqual:
		return "equal"
	case SplitPercent:
		return "percent"
	case SplitAmount:
		return "amount"
	default:
		return "unknown"
	}
}

// Expense represents a shared cost recorded against a group.
//
// An expense is created atomically with its per-member shares; the two
// are never visible independently.
type Expense struct {
	// ID is assigned by the store on creation (autoincrement).
	// Zero until the expense is persisted.
	ID int64

	// AddedBy is the User.ID of the member who recorded the expense.
	AddedBy string

	// GroupID is the group the expense belongs to.
	GroupID int64

	// Amount is the total cost in the smallest currency unit.
	// Never negative.
	Amount int64

	// Title is a short human-readable label.
	Title string

	// Description is optional free text.
	Description string

	// SplitType selects the split policy applied at creation time.
	SplitType SplitType
}

// ExpenseShare is one member's portion of an expense, produced by the
// split calculator when the expense is created. The Split amounts for
// an expense always sum to exactly Expense.Amount.
type ExpenseShare struct {
	UserID    string
	ExpenseID int64
	Split     int64
}
