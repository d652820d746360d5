// Package ledger implements the table lifecycle: creation, membership,
// expenses, mode changes, closing and reset.
//
// Every mutation follows the same path: load and change the table through
// the store's atomic update, recompute balances, persist, then notify.
package ledger

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/racha/internal/calculator"
	"github.com/mmynk/racha/internal/metrics"
	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/notify"
	"github.com/mmynk/racha/internal/storage"
)

// maxCodeAttempts bounds how many codes CreateTable tries before giving up.
const maxCodeAttempts = 5

// Manager orchestrates table mutations. It holds no table state of its own;
// concurrent calls are serialised per table by the store.
type Manager struct {
	store       storage.TableStore
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	genCode     CodeGenerator
	newID       func() string
	now         func() time.Time
	adminSecret string
}

// Option configures a Manager.
type Option func(*Manager)

// WithCodeGenerator replaces GenerateCode.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(m *Manager) { m.genCode = gen }
}

// WithIDGenerator replaces the UUID generator used for records.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithAdminSecret sets the secret DeleteAllTables checks. Without one,
// DeleteAllTables always fails.
func WithAdminSecret(secret string) Option {
	return func(m *Manager) { m.adminSecret = secret }
}

// WithMetrics records every operation.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager creates a Manager. A nil notifier discards events.
func NewManager(store storage.TableStore, notifier notify.Notifier, opts ...Option) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	m := &Manager{
		store:    store,
		notifier: notifier,
		genCode:  GenerateCode,
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settlement is the read-only settlement view of a table.
type Settlement struct {
	Table     *models.Table
	Balances  []calculator.MemberBalance
	Transfers []calculator.Transfer
}

// CreateTable creates a table named name, owned by bar (may be empty).
// If a table with the same non-empty name exists it is returned with
// existing set to true instead.
func (m *Manager) CreateTable(ctx context.Context, name, bar string) (table *models.Table, existing bool, err error) {
	defer func() { m.observe("create_table", err) }()

	name = strings.TrimSpace(name)
	if name != "" {
		found, err := m.store.GetTableByName(ctx, name)
		if err == nil {
			slog.Info("Reusing existing table", "code", found.Code, "name", name)
			return found, true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, false, storeError(err, ErrTableNotFound, name)
		}
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := m.genCode(name)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrCodeCollision, err)
		}

		table := &models.Table{
			ID:        m.newID(),
			Code:      code,
			Name:      name,
			Bar:       bar,
			CreatedAt: m.now().Unix(),
			Mode:      models.ModeSplit,
			Members:   []models.Member{},
			Expenses:  []models.Expense{},
			History:   []models.ClosureRecord{},
		}
		if table.Name == "" {
			table.Name = code
		}

		err = m.store.CreateTable(ctx, table)
		if err == nil {
			slog.Info("Table created", "code", code, "name", table.Name, "bar", bar)
			return table, false, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, false, storeError(err, ErrTableNotFound, code)
		}
		slog.Warn("Table code collision, retrying", "code", code, "attempt", attempt)
	}
	return nil, false, ErrCodeCollision
}

// GetTable returns the table with the given code.
func (m *Manager) GetTable(ctx context.Context, code string) (*models.Table, error) {
	table, err := m.store.GetTable(ctx, code)
	if err != nil {
		return nil, storeError(err, ErrTableNotFound, code)
	}
	return table, nil
}

// ListTables returns table summaries, restricted to bar when it is non-empty.
func (m *Manager) ListTables(ctx context.Context, bar string) ([]models.TableSummary, error) {
	summaries, err := m.store.ListTables(ctx)
	if err != nil {
		return nil, storeError(err, ErrTableNotFound, "")
	}
	if bar == "" {
		return summaries, nil
	}
	filtered := summaries[:0]
	for _, s := range summaries {
		if s.Bar == bar {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// AddMember appends a member with a zero balance.
func (m *Manager) AddMember(ctx context.Context, code, name string, cash float64) (*models.Member, *models.Table, error) {
	var member models.Member
	table, err := m.mutate(ctx, "add_member", code, notify.EventUpdate, func(table *models.Table) error {
		name, err := validateMemberName(name)
		if err != nil {
			return err
		}
		cash, ok := validAmount(cash, false)
		if !ok {
			return fmt.Errorf("%w: cash must not be negative", ErrInvalidInput)
		}

		// No expense references the new member yet, so balances are unchanged.
		member = models.Member{ID: m.newID(), Name: name, Cash: cash}
		table.Members = append(table.Members, member)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &member, table, nil
}

// SetMemberPaid records how much a member reports having handed over.
// The value is informational and does not affect balances.
func (m *Manager) SetMemberPaid(ctx context.Context, code, memberID string, paid float64) (*models.Member, *models.Table, error) {
	var member models.Member
	table, err := m.mutate(ctx, "set_member_paid", code, notify.EventUpdate, func(table *models.Table) error {
		i := table.FindMember(memberID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		paid, ok := validAmount(paid, false)
		if !ok {
			return fmt.Errorf("%w: paid must not be negative", ErrInvalidInput)
		}
		table.Members[i].Paid = paid
		member = table.Members[i]
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &member, table, nil
}

// AddExpense records an expense and recomputes every balance.
func (m *Manager) AddExpense(ctx context.Context, code string, in ExpenseInput) (*models.Expense, *models.Table, error) {
	var expense models.Expense
	table, err := m.mutate(ctx, "add_expense", code, notify.EventUpdate, func(table *models.Table) error {
		e, err := buildExpense(table, in)
		if err != nil {
			return err
		}
		e.ID = m.newID()
		e.CreatedAt = m.now().Unix()

		table.Expenses = append(table.Expenses, e)
		table.Members = calculator.Recalculate(table.Members, table.Expenses)
		expense = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &expense, table, nil
}

// DeleteExpense removes an expense permanently and recomputes every balance.
func (m *Manager) DeleteExpense(ctx context.Context, code, expenseID string) (*models.Table, error) {
	return m.mutate(ctx, "delete_expense", code, notify.EventUpdate, func(table *models.Table) error {
		i := table.FindExpense(expenseID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		table.Expenses = append(table.Expenses[:i], table.Expenses[i+1:]...)
		table.Members = calculator.Recalculate(table.Members, table.Expenses)
		return nil
	})
}

// ResetTable clears members, expenses and history. ID, code and mode are kept.
func (m *Manager) ResetTable(ctx context.Context, code string) (*models.Table, error) {
	return m.mutate(ctx, "reset_table", code, notify.EventReset, func(table *models.Table) error {
		table.Members = []models.Member{}
		table.Expenses = []models.Expense{}
		table.History = []models.ClosureRecord{}
		return nil
	})
}

// SetMode changes the display mode. Unknown modes become split.
// Balances are not touched.
func (m *Manager) SetMode(ctx context.Context, code, mode string) (*models.Table, error) {
	return m.mutate(ctx, "set_mode", code, notify.EventUpdate, func(table *models.Table) error {
		table.Mode = models.ParseMode(mode)
		return nil
	})
}

// CloseTable appends a closure record with the table total and the member
// who paid the most. Members and expenses are kept.
func (m *Manager) CloseTable(ctx context.Context, code string) (*models.ClosureRecord, *models.Table, error) {
	var record models.ClosureRecord
	table, err := m.mutateWith(ctx, "close_table", code, func(table *models.Table) error {
		record = models.ClosureRecord{
			ID:        m.newID(),
			Total:     calculator.TableTotal(table.Expenses),
			CreatedAt: m.now().Unix(),
		}
		if top, ok := calculator.TopPayer(table.Members, table.Expenses); ok {
			record.Winner = top.Name
		}
		table.History = append(table.History, record)
		return nil
	}, func(table *models.Table) notify.Event {
		closure := record
		return notify.Event{Type: notify.EventClosed, Code: code, Table: table, Closure: &closure}
	})
	if err != nil {
		return nil, nil, err
	}
	return &record, table, nil
}

// Settlement computes balances and the transfer plan for a table. It never
// writes.
func (m *Manager) Settlement(ctx context.Context, code string) (*Settlement, error) {
	table, err := m.GetTable(ctx, code)
	if err != nil {
		return nil, err
	}
	balances := calculator.CalculateBalances(table.Members, table.Expenses)
	return &Settlement{
		Table:     table,
		Balances:  balances,
		Transfers: calculator.PlanSettlement(balances),
	}, nil
}

// DeleteAllTables removes every table if secret matches the admin secret.
// Accounts are kept. Irreversible.
func (m *Manager) DeleteAllTables(ctx context.Context, secret string) (n int, err error) {
	defer func() { m.observe("delete_all_tables", err) }()

	if m.adminSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(m.adminSecret)) != 1 {
		slog.Warn("Rejected bulk table deletion")
		return 0, fmt.Errorf("%w: wrong admin secret", ErrUnauthorized)
	}

	n, err = m.store.DeleteAllTables(ctx)
	if err != nil {
		return 0, storeError(err, ErrTableNotFound, "")
	}
	slog.Warn("Deleted all tables", "count", n)
	return n, nil
}

// mutate runs fn through the store's atomic update and then sends an event of
// the given type carrying the stored table.
func (m *Manager) mutate(ctx context.Context, op, code string, eventType notify.EventType, fn storage.UpdateFunc) (*models.Table, error) {
	return m.mutateWith(ctx, op, code, fn, func(table *models.Table) notify.Event {
		return notify.Event{Type: eventType, Code: code, Table: table}
	})
}

func (m *Manager) mutateWith(ctx context.Context, op, code string, fn storage.UpdateFunc, event func(*models.Table) notify.Event) (*models.Table, error) {
	table, err := m.store.UpdateTable(ctx, code, fn)
	if err != nil {
		err = storeError(err, ErrTableNotFound, code)
		m.observe(op, err)
		return nil, err
	}
	m.observe(op, nil)

	// Observers get their own copy so the caller may keep using table.
	m.notifier.Notify(ctx, event(table.Clone()))
	return table, nil
}

func (m *Manager) observe(op string, err error) {
	m.metrics.ObserveMutation(op, Kind(err))
}

// Kind returns a short label for the error kind of err: "ok" for nil,
// "internal" for errors that wrap no kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
