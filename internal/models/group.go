package models

// Membership roles within a group.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group represents a set of users who split expenses together.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Flatmates", "Goa Trip").
	Name string

	// Description is an optional free-form description.
	Description string

	// CreatedBy is the ID of the user who created the group. The creator
	// becomes the group's first admin.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// MemberCount is populated on list queries; zero otherwise.
	MemberCount int
}

// GroupMember represents one user's membership in a group.
type GroupMember struct {
	GroupID string
	UserID  string

	// Name and Email are denormalized from the user for display.
	Name  string
	Email string

	// Role is RoleAdmin or RoleMember. Admins can add and remove members.
	Role string

	// JoinedAt is the Unix timestamp when the user joined the group.
	JoinedAt int64
}
