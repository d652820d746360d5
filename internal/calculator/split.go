package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/racha/internal/models"
)

// cents is the number of decimal places money is rounded to.
const cents = 2

// shares maps a member ID to a money amount.
type shares map[string]decimal.Decimal

func (s shares) add(id string, amount decimal.Decimal) {
	s[id] = s[id].Add(amount)
}

// toCents converts an amount to a whole number of cents, half away from zero.
func toCents(v float64) int64 {
	return decimal.NewFromFloat(v).Round(cents).Shift(cents).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -cents)
}

// paidTotals sums expense values by payer.
func paidTotals(expenses []models.Expense) shares {
	paid := make(shares)
	for _, e := range expenses {
		paid.add(e.PaidBy, fromCents(toCents(e.Value)))
	}
	return paid
}

// consumedShares splits each expense among its consumers in whole cents.
// Every consumer gets value/|consumers| rounded down, and the leftover cents
// go one each to the first consumers in order, so the shares of an expense
// always add up to its value. An expense without consumers charges nobody.
func consumedShares(expenses []models.Expense) shares {
	consumed := make(shares)
	for _, e := range expenses {
		n := int64(len(e.Consumers))
		if n == 0 {
			continue
		}
		for i, id := range e.Consumers {
			consumed.add(id, fromCents(splitCents(toCents(e.Value), n, int64(i))))
		}
	}
	return consumed
}

// splitCents returns the i-th of n shares of total cents.
func splitCents(total, n, i int64) int64 {
	share, rest := total/n, total%n
	if rest < 0 {
		share, rest = share-1, rest+n
	}
	if i < rest {
		share++
	}
	return share
}

// Round2 rounds v to cents, half away from zero. Every amount the engine
// stores or compares goes through this rule.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(cents).InexactFloat64()
}

// TableTotal returns the sum of all expense values, rounded to cents.
func TableTotal(expenses []models.Expense) float64 {
	var total int64
	for _, e := range expenses {
		total += toCents(e.Value)
	}
	return fromCents(total).InexactFloat64()
}

// TopPayer returns the member who paid the most. Ties go to the member listed
// first. ok is false when there are no members.
func TopPayer(members []models.Member, expenses []models.Expense) (top models.Member, ok bool) {
	paid := paidTotals(expenses)
	best := decimal.Zero
	for _, m := range members {
		if !ok || paid[m.ID].GreaterThan(best) {
			top, best, ok = m, paid[m.ID], true
		}
	}
	return top, ok
}
