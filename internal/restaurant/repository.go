// Package restaurant manages listed restaurants and their persistence.
package restaurant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybites/site/internal/db"
	"github.com/citybites/site/internal/media"
)

// Restaurant represents one listed restaurant.
type Restaurant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	Website      string    `json:"website"`
	LogoPath     *string   `json:"logoPath,omitempty"`
	CoverPath    *string   `json:"coverPath,omitempty"`
	GalleryPaths []string  `json:"galleryPaths"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a restaurant does not exist.
var ErrNotFound = fmt.Errorf("restaurant %w", media.ErrNotFound)

// ErrSlugTaken is returned when another restaurant already uses the slug.
var ErrSlugTaken = errors.New("slug already in use")

const selectColumns = `id, name, slug, description, address, website, logo_path, cover_path, gallery_paths, created_at, updated_at`

var (
	singleColumns = map[string]string{"logo": "logo_path", "cover": "cover_path"}
	listColumns   = map[string]string{"gallery": "gallery_paths"}
)

// Repository handles all restaurant database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*Restaurant, error) {
	r := &Restaurant{}
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.Description, &r.Address, &r.Website,
		&r.LogoPath, &r.CoverPath, &r.GalleryPaths, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// List returns all restaurants ordered by name.
func (r *Repository) List(ctx context.Context) ([]Restaurant, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectColumns+` FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	out := []Restaurant{}
	for rows.Next() {
		rest, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, *rest)
	}
	return out, rows.Err()
}

// GetByID fetches a restaurant by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rest, err := scan(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM restaurants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return rest, nil
}

// Create inserts a restaurant and returns the stored row.
func (r *Repository) Create(ctx context.Context, in Input) (*Restaurant, error) {
	rest, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO restaurants (name, slug, description, address, website)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+selectColumns,
		in.Name, in.Slug, in.Description, in.Address, in.Website,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return rest, nil
}

// Update overwrites the text fields of a restaurant. Path fields are untouched.
func (r *Repository) Update(ctx context.Context, id string, in Input) (*Restaurant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rest, err := scan(r.db.QueryRow(ctx,
		`UPDATE restaurants
		 SET name = $2, slug = $3, description = $4, address = $5, website = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+selectColumns,
		id, in.Name, in.Slug, in.Description, in.Address, in.Website,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return rest, nil
}

// Single returns the path held by a single-file slot ("" when empty).
func (r *Repository) Single(ctx context.Context, id, slot string) (string, error) {
	col, ok := singleColumns[slot]
	if !ok {
		return "", fmt.Errorf("%w: restaurant/%s", media.ErrUnknownSlot, slot)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNotFound
	}
	var path *string
	err := r.db.QueryRow(ctx, `SELECT `+col+` FROM restaurants WHERE id = $1`, id).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get restaurant %s: %w", slot, err)
	}
	if path == nil {
		return "", nil
	}
	return *path, nil
}

// SetSingle stores path in a single-file slot; "" clears it.
func (r *Repository) SetSingle(ctx context.Context, id, slot, path string) error {
	col, ok := singleColumns[slot]
	if !ok {
		return fmt.Errorf("%w: restaurant/%s", media.ErrUnknownSlot, slot)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE restaurants SET `+col+` = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`,
		id, path,
	)
	if err != nil {
		return fmt.Errorf("set restaurant %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPaths returns the paths held by a list slot.
func (r *Repository) ListPaths(ctx context.Context, id, slot string) ([]string, error) {
	col, ok := listColumns[slot]
	if !ok {
		return nil, fmt.Errorf("%w: restaurant/%s", media.ErrUnknownSlot, slot)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var paths []string
	err := r.db.QueryRow(ctx, `SELECT `+col+` FROM restaurants WHERE id = $1`, id).Scan(&paths)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant %s: %w", slot, err)
	}
	return paths, nil
}

// SetList replaces the paths held by a list slot.
func (r *Repository) SetList(ctx context.Context, id, slot string, paths []string) error {
	col, ok := listColumns[slot]
	if !ok {
		return fmt.Errorf("%w: restaurant/%s", media.ErrUnknownSlot, slot)
	}
	if paths == nil {
		paths = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE restaurants SET `+col+` = $2, updated_at = NOW() WHERE id = $1`,
		id, paths,
	)
	if err != nil {
		return fmt.Errorf("set restaurant %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Cascade collects the restaurant's paths and those of every event it owns.
func (r *Repository) Cascade(ctx context.Context, id string) (*media.Cascade, error) {
	rest, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := &media.Cascade{Paths: assetPaths(rest)}

	rows, err := r.db.Query(ctx,
		`SELECT id, cover_path, gallery_paths FROM events WHERE restaurant_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list restaurant events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			cover   *string
			gallery []string
		)
		if err := rows.Scan(&eventID, &cover, &gallery); err != nil {
			return nil, fmt.Errorf("scan restaurant event: %w", err)
		}
		if cover != nil {
			c.Paths = append(c.Paths, *cover)
		}
		c.Paths = append(c.Paths, gallery...)
		c.ChildIDs = append(c.ChildIDs, eventID)
	}
	return c, rows.Err()
}

// DeleteCascade removes the collected events, then the restaurant, in one transaction.
func (r *Repository) DeleteCascade(ctx context.Context, id string, c *media.Cascade) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if len(c.ChildIDs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = ANY($1)`, c.ChildIDs); err != nil {
			return fmt.Errorf("delete restaurant events: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func assetPaths(r *Restaurant) []string {
	var out []string
	if r.LogoPath != nil {
		out = append(out, *r.LogoPath)
	}
	if r.CoverPath != nil {
		out = append(out, *r.CoverPath)
	}
	return append(out, r.GalleryPaths...)
}
