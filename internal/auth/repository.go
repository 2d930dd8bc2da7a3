// Package auth handles password login for administrators.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// credentials is the internal representation of a stored login.
type credentials struct {
	ID           string
	Email        string
	PasswordHash string
}

// errNoCredentials is returned when no admin has the given email.
var errNoCredentials = errors.New("credentials not found")

// Repository handles credential lookups.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auth Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetCredentials returns the id and password hash for the email.
func (r *Repository) GetCredentials(ctx context.Context, email string) (*credentials, error) {
	c := &credentials{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return c, nil
}

// RecordLogin stamps the admin's last successful login.
func (r *Repository) RecordLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE admins SET last_login_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}
