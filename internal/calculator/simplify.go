package calculator

import "sort"

// Transaction is one suggested settlement payment: From pays To Amount.
type Transaction struct {
	From   string
	To     string
	Amount float64
}

type party struct {
	userID string
	amount float64
}

// Simplify reduces a set of net balances to a short list of settling
// transactions using greedy largest-creditor/largest-debtor matching. The
// result is a heuristic, not a provably minimal transaction count.
//
// Applying every returned transaction zeroes all balances within Epsilon.
// Balances within Epsilon of zero are ignored, so an empty or fully settled
// input yields no transactions. Sorting is stable, so ties keep the input
// order and the output is deterministic.
func Simplify(balances []Balance) []Transaction {
	var creditors, debtors []party
	for _, b := range balances {
		switch {
		case b.Net > Epsilon:
			creditors = append(creditors, party{userID: b.UserID, amount: b.Net})
		case b.Net < -Epsilon:
			debtors = append(debtors, party{userID: b.UserID, amount: -b.Net})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	var transactions []Transaction
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := creditor.amount
		if debtor.amount < amount {
			amount = debtor.amount
		}

		transactions = append(transactions, Transaction{
			From:   debtor.userID,
			To:     creditor.userID,
			Amount: Round2(amount),
		})

		creditor.amount -= amount
		debtor.amount -= amount

		if creditor.amount < Epsilon {
			i++
		}
		if debtor.amount < Epsilon {
			j++
		}
	}

	return transactions
}
