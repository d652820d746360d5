package calculator

import "github.com/shopspring/decimal"

// Epsilon is the zero tolerance: balances within one cent of zero are settled.
const Epsilon = 0.01

// Transfer is a payment from a debtor to a creditor.
type Transfer struct {
	From     string // Member ID of the person who owes
	FromName string
	To       string // Member ID of the person who is owed
	ToName   string
	Amount   float64
}

type party struct {
	id, name  string
	remaining decimal.Decimal
}

// PlanSettlement matches debtors with creditors so that applying every
// transfer brings all balances to zero (within Epsilon).
//
// Debtors are processed in the order supplied, and each walks the creditors
// in the order supplied, paying min(remaining debt, remaining credit). The
// plan is deterministic for a given input order; it keeps the transfer count
// low but is not guaranteed to be the minimum.
//
// The sum of all amounts equals the sum of positive balances when the input
// is zero-sum.
func PlanSettlement(balances []MemberBalance) []Transfer {
	eps := decimal.NewFromFloat(Epsilon)

	var debtors, creditors []*party
	for _, b := range balances {
		amount := decimal.NewFromFloat(b.Balance)
		switch {
		case amount.LessThan(eps.Neg()):
			debtors = append(debtors, &party{id: b.MemberID, name: b.Name, remaining: amount.Neg()})
		case amount.GreaterThan(eps):
			creditors = append(creditors, &party{id: b.MemberID, name: b.Name, remaining: amount})
		}
	}

	var transfers []Transfer
	for _, d := range debtors {
		for _, c := range creditors {
			if !d.remaining.IsPositive() {
				break
			}
			if !c.remaining.IsPositive() {
				continue
			}

			amount := decimal.Min(d.remaining, c.remaining)
			transfers = append(transfers, Transfer{
				From:     d.id,
				FromName: d.name,
				To:       c.id,
				ToName:   c.name,
				Amount:   amount.Round(cents).InexactFloat64(),
			})
			d.remaining = d.remaining.Sub(amount)
			c.remaining = c.remaining.Sub(amount)
		}
	}

	return transfers
}
