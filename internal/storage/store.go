// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/hisaabhub/hisaabhub/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// GroupFacts is a consistent snapshot of everything balance computation
// needs for one group: the membership, the active expenses with their
// shares and payments, and all settlements. Implementations must read the
// three sets inside a single transaction so concurrent writes cannot be
// observed partially.
type GroupFacts struct {
	Members     []*models.GroupMember
	Expenses    []*models.Expense
	Settlements []*models.Settlement
}

// Store defines the interface for ledger storage operations. This
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns nil, nil when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns nil, nil when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group and adds its creator as an admin
	// member, atomically.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByUser returns the groups the user belongs to, newest
	// first, with MemberCount populated.
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)

	// ListMembers returns a group's members with names and roles.
	ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)

	// GetMemberRole returns the user's role in the group, or "" when the
	// user is not a member.
	GetMemberRole(ctx context.Context, groupID, userID string) (string, error)

	// AddMember adds a user to a group with the given role.
	AddMember(ctx context.Context, groupID, userID, role string) error

	// RemoveMember deletes the member's ledger footprint in the group:
	// their expense shares, payer rows, paid-by references (nulled),
	// settlements and the membership row, all in one transaction. Balance
	// preconditions are the caller's responsibility.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// CreateExpense persists an expense with its shares and payer rows as
	// one atomic unit: either all rows land or none do.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID. Returns ErrNotFound if
	// missing.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the group's active expenses, newest
	// first, with shares and payments populated.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// DeactivateExpense soft-deletes an expense. Its rows remain for
	// history but balance aggregation excludes it.
	DeactivateExpense(ctx context.Context, expenseID string) error

	// CreateSettlement appends one settlement record.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup returns all settlements for a group, newest
	// first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// GroupFacts reads the group's members, active expenses and
	// settlements in a single transaction.
	GroupFacts(ctx context.Context, groupID string) (*GroupFacts, error)

	// Close releases any resources held by the store.
	Close() error
}
