// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/racha/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record's unique key is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// UpdateFunc mutates a table in place during UpdateTable. Returning an error
// aborts the update and nothing is written.
type UpdateFunc func(table *models.Table) error

// TableStore defines the keyed table operations the ledger needs.
// Tables are keyed by code. Implementations must hand out copies: mutating a
// returned table never changes stored state.
type TableStore interface {
	// CreateTable persists a new table. Returns ErrAlreadyExists if the code
	// is taken.
	CreateTable(ctx context.Context, table *models.Table) error

	// GetTable retrieves a table by code. Returns ErrNotFound if missing.
	GetTable(ctx context.Context, code string) (*models.Table, error)

	// GetTableByName retrieves the first table with the given name.
	// Returns ErrNotFound if no table has that name.
	GetTableByName(ctx context.Context, name string) (*models.Table, error)

	// ListTables returns summaries of all tables, oldest first.
	ListTables(ctx context.Context) ([]models.TableSummary, error)

	// UpdateTable loads the table, applies fn and writes the result back as
	// one atomic step per code. Concurrent updates to the same code are
	// serialised. Returns the stored table, or ErrNotFound if missing.
	UpdateTable(ctx context.Context, code string, fn UpdateFunc) (*models.Table, error)

	// DeleteAllTables removes every table and returns how many were removed.
	// Accounts are kept.
	DeleteAllTables(ctx context.Context) (int, error)
}

// AccountStore defines persistence for venue accounts.
type AccountStore interface {
	// CreateBar persists a new account. Returns ErrAlreadyExists if the name is taken.
	CreateBar(ctx context.Context, bar *models.Bar) error

	// GetBar retrieves an account by name. Returns ErrNotFound if missing.
	GetBar(ctx context.Context, name string) (*models.Bar, error)
}

// Store is the full storage backend. This abstraction allows swapping storage
// backends (memory, SQLite, Redis) without changing the ledger or service layer.
type Store interface {
	TableStore
	AccountStore

	// Close releases any resources held by the store.
	Close() error
}
