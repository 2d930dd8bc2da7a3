// Package admin manages administrator accounts and their persistence.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybites/site/internal/db"
)

// Admin represents an account allowed to edit site content.
type Admin struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ErrNotFound is returned when an admin does not exist.
var ErrNotFound = errors.New("admin not found")

// ErrAlreadyExists is returned when an email is already registered.
var ErrAlreadyExists = errors.New("admin already exists")

// Repository handles all admin database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin with an already hashed password.
func (r *Repository) Create(ctx context.Context, email, passwordHash string) (*Admin, error) {
	a := &Admin{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO admins (email, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, email, last_login_at, created_at`,
		email, passwordHash,
	).Scan(&a.ID, &a.Email, &a.LastLoginAt, &a.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return a, nil
}

// GetByID fetches an admin by their UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	a := &Admin{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, last_login_at, created_at
		 FROM admins WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Email, &a.LastLoginAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by id: %w", err)
	}
	return a, nil
}

// Exists returns true if an admin with the given id exists.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}
