// Package calculator holds the pure computations at the heart of HisaabHub:
// share calculation for new expenses, balance aggregation over ledger facts,
// and greedy debt simplification. Every function here is a pure function of
// its arguments; fetching facts from storage and persisting results belong
// to the caller.
package calculator

import "math"

// Epsilon is the tolerance below which a balance or share mismatch is
// treated as zero. Amounts are currency-agnostic with two decimal places.
const Epsilon = 0.01

// Round2 rounds to two decimal places, half away from zero. This matches the
// rounding the rest of the system assumes when comparing against Epsilon.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
