package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/racha/internal/models"
	"github.com/mmynk/racha/internal/storage"
)

// CreateBar inserts a new venue account.
func (s *SQLiteStore) CreateBar(ctx context.Context, bar *models.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM bars WHERE name = ?", bar.Name).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%w: bar %s", storage.ErrAlreadyExists, bar.Name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check bar existence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bars (name, email, phone, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		bar.Name, bar.Email, bar.Phone, bar.PasswordHash, bar.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBar retrieves a venue account by name.
func (s *SQLiteStore) GetBar(ctx context.Context, name string) (*models.Bar, error) {
	query := `
		SELECT name, email, phone, password_hash, created_at
		FROM bars
		WHERE name = ?
	`

	bar := &models.Bar{}
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&bar.Name,
		&bar.Email,
		&bar.Phone,
		&bar.PasswordHash,
		&bar.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bar %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bar: %w", err)
	}

	return bar, nil
}
