package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/lostfound/internal/domain"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) Create(ctx context.Context, username, passwordHash string) (*domain.Admin, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash) VALUES (?, ?)
	`, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	admin := &domain.Admin{}
	err = s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE id = ?
	`, id).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

func (s *AdminStore) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE username = ?
	`, username).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

func (s *AdminStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE admins SET password_hash = ? WHERE username = ?
	`, passwordHash, username)
	if err != nil {
		return fmt.Errorf("failed to update admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("admin not found")
	}

	return nil
}
