package calculator

import "fmt"

// OutstandingBalanceError reports an attempt to remove a group member whose
// balance is not settled. It carries the balance so callers can show it.
type OutstandingBalanceError struct {
	Balance float64
}

func (e *OutstandingBalanceError) Error() string {
	return fmt.Sprintf("outstanding balance of %.2f", e.Balance)
}

// ExpenseFacts carries the minimal ledger facts about one active expense
// needed for balance aggregation. Callers must pass active expenses only;
// soft-deleted expenses are excluded from every balance.
type ExpenseFacts struct {
	Amount float64

	// Payments lists who funded the expense. Single-payer expenses carry
	// one entry for the full amount.
	Payments []PaymentFacts

	// Shares lists how the cost is attributed across members.
	Shares []ShareFacts
}

// PaymentFacts is one funding contribution toward an expense.
type PaymentFacts struct {
	UserID string
	Amount float64
}

// ShareFacts is one member's attributed portion of an expense.
type ShareFacts struct {
	UserID string
	Amount float64
}

// SettlementFacts is one recorded settlement payment between two members.
// It moves balance from FromUser to ToUser: FromUser's net decreases by
// Amount, ToUser's increases.
type SettlementFacts struct {
	FromUser string
	ToUser   string
	Amount   float64
}

// Balance is the derived net position of one member within a group.
// Positive means others owe the member; negative means the member owes.
type Balance struct {
	UserID string

	// Net = TotalPaid - TotalOwed + SettlementsReceived - SettlementsPaid.
	Net float64

	TotalPaid           float64
	TotalOwed           float64
	SettlementsPaid     float64
	SettlementsReceived float64
}

// ComputeBalances aggregates ledger facts into one net balance per member.
//
// It is a pure function of its arguments: calling it twice on the same facts
// yields identical results. Output order follows memberIDs; members that
// appear only in the facts (e.g. removed from the group after paying) are
// appended afterwards in first-seen order.
func ComputeBalances(memberIDs []string, expenses []ExpenseFacts, settlements []SettlementFacts) []Balance {
	byUser := make(map[string]*Balance, len(memberIDs))
	var order []string

	get := func(userID string) *Balance {
		if b, ok := byUser[userID]; ok {
			return b
		}
		b := &Balance{UserID: userID}
		byUser[userID] = b
		order = append(order, userID)
		return b
	}

	for _, id := range memberIDs {
		get(id)
	}

	for _, e := range expenses {
		for _, p := range e.Payments {
			get(p.UserID).TotalPaid += p.Amount
		}
		for _, s := range e.Shares {
			get(s.UserID).TotalOwed += s.Amount
		}
	}

	for _, s := range settlements {
		get(s.FromUser).SettlementsPaid += s.Amount
		get(s.ToUser).SettlementsReceived += s.Amount
	}

	balances := make([]Balance, 0, len(order))
	for _, id := range order {
		b := byUser[id]
		b.Net = b.TotalPaid - b.TotalOwed + b.SettlementsReceived - b.SettlementsPaid
		balances = append(balances, *b)
	}
	return balances
}
