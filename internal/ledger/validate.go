package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/mmynk/racha/internal/calculator"
	"github.com/mmynk/racha/internal/models"
)

// ExpenseInput is the caller-supplied part of a new expense.
type ExpenseInput struct {
	Item   string
	Value  float64
	PaidBy string
	// Consumers defaults to every current member when empty.
	Consumers []string
}

// validAmount rounds v to cents and reports whether the result is usable as
// a money amount. positive requires the rounded value to be above zero.
func validAmount(v float64, positive bool) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	v = calculator.Round2(v)
	if positive {
		return v, v > 0
	}
	return v, v >= 0
}

func validateMemberName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	return name, nil
}

// buildExpense validates in against the table's current members and resolves
// the consumer default. The default is a snapshot: members who join later
// are never added to this expense.
func buildExpense(table *models.Table, in ExpenseInput) (models.Expense, error) {
	value, ok := validAmount(in.Value, true)
	if !ok {
		return models.Expense{}, fmt.Errorf("%w: expense value must be positive, got %v", ErrInvalidInput, in.Value)
	}
	if table.FindMember(in.PaidBy) < 0 {
		return models.Expense{}, fmt.Errorf("%w: payer %q is not a member of table %s", ErrInvalidInput, in.PaidBy, table.Code)
	}

	consumers := make([]string, 0, len(in.Consumers))
	seen := make(map[string]bool, len(in.Consumers))
	for _, id := range in.Consumers {
		if seen[id] {
			continue
		}
		if table.FindMember(id) < 0 {
			return models.Expense{}, fmt.Errorf("%w: consumer %q is not a member of table %s", ErrInvalidInput, id, table.Code)
		}
		seen[id] = true
		consumers = append(consumers, id)
	}
	if len(consumers) == 0 {
		consumers = table.MemberIDs()
	}

	return models.Expense{
		Item:      strings.TrimSpace(in.Item),
		Value:     value,
		PaidBy:    in.PaidBy,
		Consumers: consumers,
	}, nil
}
