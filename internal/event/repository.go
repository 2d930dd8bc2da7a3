// Package event manages food events and their persistence.
package event

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

// Event represents one scheduled event.
type Event struct {
	ID           string     `json:"id"`
	RestaurantID *string    `json:"restaurantId,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	StartsAt     time.Time  `json:"startsAt"`
	EndsAt       *time.Time `json:"endsAt,omitempty"`
	CoverPath    *string    `json:"coverPath,omitempty"`
	GalleryPaths []string   `json:"galleryPaths"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

var (
	// ErrNotFound is returned when an event does not exist.
	ErrNotFound = fmt.Errorf("event %w", media.ErrNotFound)
	// ErrUnknownRestaurant is returned when restaurantId references no row.
	ErrUnknownRestaurant = errors.New("restaurant does not exist")
)

const selectColumns = `id, restaurant_id, title, description, location, starts_at, ends_at, cover_path, gallery_paths, created_at, updated_at`

var (
	singleColumns = map[string]string{"cover": "cover_path"}
	listColumns   = map[string]string{"gallery": "gallery_paths"}
)

// Repository handles all event database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*Event, error) {
	e := &Event{}
	err := row.Scan(&e.ID, &e.RestaurantID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.CoverPath, &e.GalleryPaths, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// List returns events ordered by start time. With from set, only events
// ending (or starting, when open-ended) at or after from are returned.
func (r *Repository) List(ctx context.Context, from *time.Time) ([]Event, error) {
	query := `SELECT ` + selectColumns + ` FROM events`
	args := []any{}
	if from != nil {
		query += ` WHERE COALESCE(ends_at, starts_at) >= $1`
		args = append(args, *from)
	}
	query += ` ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetByID fetches an event by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	e, err := scan(r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// Create inserts an event and returns the stored row.
func (r *Repository) Create(ctx context.Context, in Input) (*Event, error) {
	e, err := scan(r.db.QueryRow(ctx,
		`INSERT INTO events (restaurant_id, title, description, location, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+selectColumns,
		in.RestaurantID, in.Title, in.Description, in.Location, in.StartsAt, in.EndsAt,
	))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrUnknownRestaurant
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// Update overwrites the text and schedule fields of an event.
func (r *Repository) Update(ctx context.Context, id string, in Input) (*Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	e, err := scan(r.db.QueryRow(ctx,
		`UPDATE events
		 SET restaurant_id = $2, title = $3, description = $4, location = $5,
		     starts_at = $6, ends_at = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+selectColumns,
		id, in.RestaurantID, in.Title, in.Description, in.Location, in.StartsAt, in.EndsAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrUnknownRestaurant
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Single returns the path held by a single-file slot ("" when empty).
func (r *Repository) Single(ctx context.Context, id, slot string) (string, error) {
	col, ok := singleColumns[slot]
	if !ok {
		return "", fmt.Errorf("%w: event/%s", media.ErrUnknownSlot, slot)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNotFound
	}
	var path *string
	err := r.db.QueryRow(ctx, `SELECT `+col+` FROM events WHERE id = $1`, id).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get event %s: %w", slot, err)
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
		return fmt.Errorf("%w: event/%s", media.ErrUnknownSlot, slot)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET `+col+` = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`,
		id, path,
	)
	if err != nil {
		return fmt.Errorf("set event %s: %w", slot, err)
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
		return nil, fmt.Errorf("%w: event/%s", media.ErrUnknownSlot, slot)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var paths []string
	err := r.db.QueryRow(ctx, `SELECT `+col+` FROM events WHERE id = $1`, id).Scan(&paths)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", slot, err)
	}
	return paths, nil
}

// SetList replaces the paths held by a list slot.
func (r *Repository) SetList(ctx context.Context, id, slot string, paths []string) error {
	col, ok := listColumns[slot]
	if !ok {
		return fmt.Errorf("%w: event/%s", media.ErrUnknownSlot, slot)
	}
	if paths == nil {
		paths = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET `+col+` = $2, updated_at = NOW() WHERE id = $1`,
		id, paths,
	)
	if err != nil {
		return fmt.Errorf("set event %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Cascade collects the event's own paths. Events have no dependent rows.
func (r *Repository) Cascade(ctx context.Context, id string) (*media.Cascade, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &media.Cascade{Paths: assetPaths(e)}, nil
}

// DeleteCascade removes the event row.
func (r *Repository) DeleteCascade(ctx context.Context, id string, _ *media.Cascade) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func assetPaths(e *Event) []string {
	var out []string
	if e.CoverPath != nil {
		out = append(out, *e.CoverPath)
	}
	return append(out, e.GalleryPaths...)
}
