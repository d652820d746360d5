// Package memory provides an in-process implementation of storage.Store.
// Data lives for the lifetime of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// Ensure MemoryStore implements storage.Store
var _ storage.Store = (*MemoryStore)(nil)

// MemoryStore implements storage.Store with maps guarded by one lock.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*models.Table
	bars   map[string]*models.Bar
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]*models.Table),
		bars:   make(map[string]*models.Bar),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateTable stores a copy of table.
func (s *MemoryStore) CreateTable(ctx context.Context, table *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tables[table.Code]; exists {
		return fmt.Errorf("%w: table %s", storage.ErrAlreadyExists, table.Code)
	}
	s.tables[table.Code] = table.Clone()
	return nil
}

// GetTable returns a copy of the table with the given code.
func (s *MemoryStore) GetTable(ctx context.Context, code string) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.tables[code]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", storage.ErrNotFound, code)
	}
	return table.Clone(), nil
}

// GetTableByName returns the oldest table with the given name.
func (s *MemoryStore) GetTableByName(ctx context.Context, name string) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.Table
	for _, table := range s.tables {
		if table.Name != name {
			continue
		}
		if found == nil || older(table, found) {
			found = table
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: table named %q", storage.ErrNotFound, name)
	}
	return found.Clone(), nil
}

// ListTables returns summaries ordered by creation time.
func (s *MemoryStore) ListTables(ctx context.Context) ([]models.TableSummary, error) {
	s.mu.RLock()
	tables := make([]*models.Table, 0, len(s.tables))
	for _, table := range s.tables {
		tables = append(tables, table)
	}
	s.mu.RUnlock()

	sort.Slice(tables, func(i, j int) bool { return older(tables[i], tables[j]) })

	summaries := make([]models.TableSummary, len(tables))
	for i, table := range tables {
		summaries[i] = table.Summary()
	}
	return summaries, nil
}

// UpdateTable applies fn under the write lock.
func (s *MemoryStore) UpdateTable(ctx context.Context, code string, fn storage.UpdateFunc) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tables[code]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", storage.ErrNotFound, code)
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	// Code is the key; an update cannot move a table.
	working.Code = code
	s.tables[code] = working
	return working.Clone(), nil
}

// DeleteAllTables drops every table.
func (s *MemoryStore) DeleteAllTables(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tables)
	s.tables = make(map[string]*models.Table)
	return n, nil
}

// CreateBar stores a copy of bar.
func (s *MemoryStore) CreateBar(ctx context.Context, bar *models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bars[bar.Name]; exists {
		return fmt.Errorf("%w: bar %s", storage.ErrAlreadyExists, bar.Name)
	}
	stored := *bar
	s.bars[bar.Name] = &stored
	return nil
}

// GetBar returns a copy of the named account.
func (s *MemoryStore) GetBar(ctx context.Context, name string) (*models.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bar, ok := s.bars[name]
	if !ok {
		return nil, fmt.Errorf("%w: bar %s", storage.ErrNotFound, name)
	}
	found := *bar
	return &found, nil
}

func older(a, b *models.Table) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.Code < b.Code
}
