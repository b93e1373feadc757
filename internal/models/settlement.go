package models

// Settlement represents a real-world payment between group members that
// offsets a computed balance. Settlements are append-only: they are created
// by an explicit settle action, never inferred, and never soft-deleted.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUser is the member who recorded the settlement. Their net balance
	// decreases by Amount: they were owed money and have been paid back.
	FromUser string

	// ToUser is the member whose debt the settlement clears. Their net
	// balance increases by Amount.
	ToUser string

	// FromName and ToName are denormalized display names for history views.
	FromName string
	ToName   string

	// Amount is the payment amount. Always positive.
	Amount float64

	// Description is an optional note (defaults to "Settlement payment").
	Description string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
