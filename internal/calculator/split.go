package calculator

import (
	"errors"
	"fmt"
	"math"
)

// SplitMethod selects how an expense amount is divided across members.
type SplitMethod string

const (
	// SplitEqual divides the amount evenly across all members.
	SplitEqual SplitMethod = "equal"
	// SplitExact uses caller-supplied per-member amounts as-is.
	SplitExact SplitMethod = "exact"
	// SplitPercentage assigns each member a percentage of the amount.
	SplitPercentage SplitMethod = "percentage"
)

var (
	// ErrInvalidSplitMethod is returned for an unrecognized split method.
	ErrInvalidSplitMethod = errors.New("invalid split method")

	// ErrSplitMismatch is returned when computed shares do not sum to the
	// expense amount within Epsilon.
	ErrSplitMismatch = errors.New("shares do not sum to total amount")
)

// SplitInput carries the method-specific parameters for ComputeShares.
type SplitInput struct {
	// ExactAmounts maps member ID to share amount. Required for SplitExact.
	ExactAmounts map[string]float64

	// Percentages is positional, parallel to the member list. Used for
	// SplitPercentage; missing entries count as zero.
	Percentages []float64
}

// MemberShare is one member's computed portion of an expense.
type MemberShare struct {
	UserID string
	Amount float64
}

// ComputeShares divides amount across memberIDs according to method.
//
// The returned shares always sum to amount within Epsilon; otherwise
// ErrSplitMismatch is returned and nothing should be persisted. For equal
// splits the last share absorbs the rounding remainder, so the sum
// reconciles exactly even for awkward divisions like 100/3.
func ComputeShares(amount float64, method SplitMethod, memberIDs []string, input SplitInput) ([]MemberShare, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	if len(memberIDs) == 0 {
		return nil, errors.New("must have at least one member")
	}

	var shares []MemberShare

	switch method {
	case SplitEqual:
		perMember := Round2(amount / float64(len(memberIDs)))
		running := 0.0
		for i, id := range memberIDs {
			share := perMember
			if i == len(memberIDs)-1 {
				share = Round2(amount - running)
			}
			shares = append(shares, MemberShare{UserID: id, Amount: share})
			running += share
		}

	case SplitExact:
		if len(input.ExactAmounts) == 0 {
			return nil, errors.New("exact amounts are required for exact split")
		}
		for _, id := range memberIDs {
			shares = append(shares, MemberShare{UserID: id, Amount: Round2(input.ExactAmounts[id])})
		}

	case SplitPercentage:
		for i, id := range memberIDs {
			pct := 0.0
			if i < len(input.Percentages) {
				pct = input.Percentages[i]
			}
			shares = append(shares, MemberShare{UserID: id, Amount: Round2(amount * pct / 100)})
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSplitMethod, method)
	}

	if err := VerifyShares(amount, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// VerifyShares checks that shares sum to amount within Epsilon. It is used
// both as the ComputeShares post-condition and to validate caller-supplied
// shares before an expense is persisted.
func VerifyShares(amount float64, shares []MemberShare) error {
	total := 0.0
	for _, s := range shares {
		total += s.Amount
	}
	if math.Abs(total-amount) > Epsilon {
		return fmt.Errorf("%w: shares total %.2f, amount %.2f", ErrSplitMismatch, total, amount)
	}
	return nil
}
