package models

// Mode is the display mode of a table.
type Mode string

const (
	// ModeSplit shares costs by consumption.
	ModeSplit Mode = "split"
	// ModeFree is a display label only; balances are computed the same way.
	ModeFree Mode = "free"
)

// ParseMode normalises s to a known mode. Anything other than "free" is split.
func ParseMode(s string) Mode {
	if Mode(s) == ModeFree {
		return ModeFree
	}
	return ModeSplit
}

// Table is a shared tab. Code is unique across all tables and is the key the
// store and the notification channel use; ID never changes once assigned.
type Table struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Bar       string `json:"bar,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Mode      Mode   `json:"mode"`

	Members  []Member        `json:"members"`
	Expenses []Expense       `json:"expenses"`
	History  []ClosureRecord `json:"history"`
}

// Member is a participant of a table.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Cash is the self-reported starting cash. Informational only.
	Cash float64 `json:"cash"`

	// Paid is the self-reported amount already handed over. Informational only.
	Paid float64 `json:"paid"`

	// Balance is what the member is owed (positive) or owes (negative).
	// Derived from the table's expenses, never set directly.
	Balance float64 `json:"balance"`
}

// Expense is a single purchase recorded on a table.
type Expense struct {
	ID    string  `json:"id"`
	Item  string  `json:"item"`
	Value float64 `json:"value"`

	// PaidBy is the ID of the member who paid.
	PaidBy string `json:"paid_by"`

	// Consumers are the IDs of members sharing the cost equally. Resolved at
	// creation time and never updated afterwards.
	Consumers []string `json:"consumers"`

	CreatedAt int64 `json:"created_at"`
}

// ClosureRecord is written each time a table is closed.
type ClosureRecord struct {
	ID    string  `json:"id"`
	Total float64 `json:"total"`

	// Winner is the name of the member who paid the most, empty when the
	// table had no members.
	Winner    string `json:"winner"`
	CreatedAt int64  `json:"created_at"`
}

// TableSummary is the listing view of a table.
type TableSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Bar         string `json:"bar,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	MemberCount int    `json:"member_count"`
}

// Summary returns the listing view of t.
func (t *Table) Summary() TableSummary {
	return TableSummary{
		Code:        t.Code,
		Name:        t.Name,
		Bar:         t.Bar,
		CreatedAt:   t.CreatedAt,
		MemberCount: len(t.Members),
	}
}

// FindMember returns the index of the member with the given ID, or -1.
func (t *Table) FindMember(id string) int {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return i
		}
	}
	return -1
}

// FindExpense returns the index of the expense with the given ID, or -1.
func (t *Table) FindExpense(id string) int {
	for i := range t.Expenses {
		if t.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// MemberIDs returns the IDs of all current members in order.
func (t *Table) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// Clone returns a deep copy of t. Stores hand out clones so callers can
// mutate records without touching stored state.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = append([]Member(nil), t.Members...)
	c.History = append([]ClosureRecord(nil), t.History...)
	c.Expenses = make([]Expense, len(t.Expenses))
	for i, e := range t.Expenses {
		e.Consumers = append([]string(nil), e.Consumers...)
		c.Expenses[i] = e
	}
	c.normalize()
	return &c
}

// normalize replaces nil collections with empty ones so JSON renders [] not null.
func (t *Table) normalize() {
	if t.Members == nil {
		t.Members = []Member{}
	}
	if t.Expenses == nil {
		t.Expenses = []Expense{}
	}
	if t.History == nil {
		t.History = []ClosureRecord{}
	}
}
