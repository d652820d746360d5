package calculator

import (
	"github.com/mmynk/racha/internal/models"
)

// MemberBalance represents the balance information for one table member.
type MemberBalance struct {
	MemberID string
	Name     string
	Paid     float64 // Total amount paid across all expenses
	Consumed float64 // Total share of expenses consumed
	Balance  float64 // Positive = owed money, Negative = owes money
}

// CalculateBalances computes a balance for every member from the table's
// expenses. Members are returned in the order given.
//
// Algorithm:
//   - paid(m)     = sum of values of expenses m paid for
//   - consumed(m) = sum of m's cent share of each expense m consumed
//   - balance(m)  = paid(m) - consumed(m)
//
// All amounts are whole cents, so the balances of a table add up to exactly
// zero whenever every payer and consumer is a member.
//
// The function is pure: the same inputs always give the same output.
func CalculateBalances(members []models.Member, expenses []models.Expense) []MemberBalance {
	paid := paidTotals(expenses)
	consumed := consumedShares(expenses)

	balances := make([]MemberBalance, len(members))
	for i, m := range members {
		p, c := paid[m.ID], consumed[m.ID]
		balances[i] = MemberBalance{
			MemberID: m.ID,
			Name:     m.Name,
			Paid:     p.InexactFloat64(),
			Consumed: c.InexactFloat64(),
			Balance:  p.Sub(c).InexactFloat64(),
		}
	}
	return balances
}

// Recalculate returns a copy of members with Balance recomputed from expenses.
// The input slice is not modified.
func Recalculate(members []models.Member, expenses []models.Expense) []models.Member {
	balances := CalculateBalances(members, expenses)
	updated := make([]models.Member, len(members))
	for i, m := range members {
		m.Balance = balances[i].Balance
		updated[i] = m
	}
	return updated
}
