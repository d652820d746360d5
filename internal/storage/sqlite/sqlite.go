// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
//
// The pool is limited to one connection, so every transaction is serialised.
// That is what makes UpdateTable atomic per table; it also means a result set
// must be closed before the next query runs.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTable persists a new table with all of its children.
func (s *SQLiteStore) CreateTable(ctx context.Context, table *models.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM tabs WHERE code = ?", table.Code).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%w: table %s", storage.ErrAlreadyExists, table.Code)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check table existence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO tabs (code, id, name, bar, mode, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		table.Code, table.ID, table.Name, table.Bar, string(table.Mode), table.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}

	if err := writeChildren(ctx, tx, table); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTable retrieves a table by code, including members, expenses and history.
func (s *SQLiteStore) GetTable(ctx context.Context, code string) (*models.Table, error) {
	return loadTable(ctx, s.db, code)
}

// GetTableByName retrieves the oldest table with the given name.
func (s *SQLiteStore) GetTableByName(ctx context.Context, name string) (*models.Table, error) {
	var code string
	err := s.db.QueryRowContext(ctx,
		"SELECT code FROM tabs WHERE name = ? ORDER BY created_at, code LIMIT 1",
		name,
	).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table named %q", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find table by name: %w", err)
	}
	return loadTable(ctx, s.db, code)
}

// ListTables returns summaries of all tables, oldest first.
func (s *SQLiteStore) ListTables(ctx context.Context) ([]models.TableSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.code, t.name, t.bar, t.created_at, COUNT(m.id)
		FROM tabs t LEFT JOIN members m ON m.tab_code = t.code
		GROUP BY t.code
		ORDER BY t.created_at, t.code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	summaries := []models.TableSummary{}
	for rows.Next() {
		var summary models.TableSummary
		if err := rows.Scan(&summary.Code, &summary.Name, &summary.Bar, &summary.CreatedAt, &summary.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan table summary: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return summaries, nil
}

// UpdateTable loads, mutates and rewrites a table inside one transaction.
func (s *SQLiteStore) UpdateTable(ctx context.Context, code string, fn storage.UpdateFunc) (*models.Table, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	table, err := loadTable(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if err := fn(table); err != nil {
		return nil, err
	}
	table.Code = code

	_, err = tx.ExecContext(ctx,
		"UPDATE tabs SET name = ?, bar = ?, mode = ? WHERE code = ?",
		table.Name, table.Bar, string(table.Mode), code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update table: %w", err)
	}

	// Children are small; replacing them wholesale keeps order and removals simple.
	for _, stmt := range []string{
		"DELETE FROM expense_consumers WHERE expense_id IN (SELECT id FROM expenses WHERE tab_code = ?)",
		"DELETE FROM members WHERE tab_code = ?",
		"DELETE FROM expenses WHERE tab_code = ?",
		"DELETE FROM closures WHERE tab_code = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, code); err != nil {
			return nil, fmt.Errorf("failed to clear table children: %w", err)
		}
	}
	if err := writeChildren(ctx, tx, table); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return table, nil
}

// DeleteAllTables removes every table with its children.
func (s *SQLiteStore) DeleteAllTables(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM expense_consumers",
		"DELETE FROM expenses",
		"DELETE FROM members",
		"DELETE FROM closures",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to delete table children: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM tabs")
	if err != nil {
		return 0, fmt.Errorf("failed to delete tables: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

// writeChildren inserts members, expenses (with consumers) and history.
func writeChildren(ctx context.Context, tx *sql.Tx, table *models.Table) error {
	for i, m := range table.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO members (tab_code, id, position, name, cash, paid, balance) VALUES (?, ?, ?, ?, ?, ?, ?)",
			table.Code, m.ID, i, m.Name, m.Cash, m.Paid, m.Balance,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	for i, e := range table.Expenses {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expenses (id, tab_code, position, item, value, paid_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			e.ID, table.Code, i, e.Item, e.Value, e.PaidBy, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for j, memberID := range e.Consumers {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_consumers (expense_id, position, member_id) VALUES (?, ?, ?)",
				e.ID, j, memberID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense consumer: %w", err)
			}
		}
	}

	for i, h := range table.History {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO closures (id, tab_code, position, total, winner, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			h.ID, table.Code, i, h.Total, h.Winner, h.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert closure record: %w", err)
		}
	}
	return nil
}

// loadTable reads a table and its children. Each result set is drained and
// closed before the next query.
func loadTable(ctx context.Context, q querier, code string) (*models.Table, error) {
	table := &models.Table{}
	var mode string
	err := q.QueryRowContext(ctx,
		"SELECT code, id, name, bar, mode, created_at FROM tabs WHERE code = ?",
		code,
	).Scan(&table.Code, &table.ID, &table.Name, &table.Bar, &mode, &table.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: table %s", storage.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	table.Mode = models.ParseMode(mode)

	if table.Members, err = loadMembers(ctx, q, code); err != nil {
		return nil, err
	}
	if table.Expenses, err = loadExpenses(ctx, q, code); err != nil {
		return nil, err
	}
	if table.History, err = loadHistory(ctx, q, code); err != nil {
		return nil, err
	}
	return table, nil
}

func loadMembers(ctx context.Context, q querier, code string) ([]models.Member, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, cash, paid, balance FROM members WHERE tab_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Cash, &m.Paid, &m.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func loadExpenses(ctx context.Context, q querier, code string) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, item, value, paid_by, created_at FROM expenses WHERE tab_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	expenses := []models.Expense{}
	for rows.Next() {
		e := models.Expense{Consumers: []string{}}
		if err := rows.Scan(&e.ID, &e.Item, &e.Value, &e.PaidBy, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Get all consumers for this table in one pass
	consumerRows, err := q.QueryContext(ctx, `
		SELECT c.expense_id, c.member_id
		FROM expense_consumers c JOIN expenses e ON e.id = c.expense_id
		WHERE e.tab_code = ?
		ORDER BY c.expense_id, c.position`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense consumers: %w", err)
	}
	defer consumerRows.Close()

	index := make(map[string]int, len(expenses))
	for i, e := range expenses {
		index[e.ID] = i
	}
	for consumerRows.Next() {
		var expenseID, memberID string
		if err := consumerRows.Scan(&expenseID, &memberID); err != nil {
			return nil, fmt.Errorf("failed to scan expense consumer: %w", err)
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].Consumers = append(expenses[i].Consumers, memberID)
		}
	}
	if err := consumerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense consumers: %w", err)
	}
	return expenses, nil
}

func loadHistory(ctx context.Context, q querier, code string) ([]models.ClosureRecord, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, total, winner, created_at FROM closures WHERE tab_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	history := []models.ClosureRecord{}
	for rows.Next() {
		var h models.ClosureRecord
		if err := rows.Scan(&h.ID, &h.Total, &h.Winner, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan closure record: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return history, nil
}
