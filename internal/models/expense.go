package models

// Expense represents one shared cost logged in a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g., "Groceries").
	Description string

	// Amount is the full cost of the expense.
	Amount float64

	// Payments records who funded the expense. A single-payer expense has
	// exactly one entry covering Amount; with multiple payers the entries'
	// amounts sum to Amount.
	Payments []Payment

	// Shares records how the cost is attributed across members. For an
	// active expense the share amounts sum to Amount within 0.01.
	Shares []Share

	// Active is false once the expense has been soft-deleted. Inactive
	// expenses are kept for history but excluded from balance aggregation.
	Active bool

	// CreatedAt is the Unix timestamp when the expense was logged.
	CreatedAt int64
}

// Payment is one member's contribution toward funding an expense.
type Payment struct {
	// UserID identifies the payer.
	UserID string

	// Name is the payer's display name, denormalized for listing.
	Name string

	// Amount is how much this member paid.
	Amount float64
}

// Share is the portion of an expense's cost attributed to one member.
type Share struct {
	// UserID identifies the member the share is attributed to.
	UserID string

	// Name is the member's display name, denormalized for listing.
	Name string

	// Amount is this member's portion of the expense cost.
	Amount float64
}
