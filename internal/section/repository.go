package section

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citybites/site/internal/media"
)

// Section is one stored page section.
type Section struct {
	Key       string     `json:"key"`
	Version   int        `json:"version"`
	Settings  Settings   `json:"settings"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles site_sections database operations and exposes the
// section slots to the media service.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load returns the section for key. A key with no stored row yields the defaults.
func (r *Repository) Load(ctx context.Context, key string) (*Section, error) {
	return load(ctx, r.db, key, false)
}

// Save writes settings for key at the current version.
func (r *Repository) Save(ctx context.Context, key string, s Settings) (*Section, error) {
	return save(ctx, r.db, key, s)
}

func load(ctx context.Context, q querier, key string, forUpdate bool) (*Section, error) {
	if !ValidKey(key) {
		return nil, ErrNotFound
	}
	query := `SELECT version, settings, updated_at FROM site_sections WHERE key = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		version   int
		raw       []byte
		updatedAt time.Time
	)
	err := q.QueryRow(ctx, query, key).Scan(&version, &raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		s, err := Defaults(key)
		if err != nil {
			return nil, err
		}
		return &Section{Key: key, Version: CurrentVersion, Settings: s}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get section %s: %w", key, err)
	}

	s, err := Decode(key, version, raw)
	if err != nil {
		return nil, err
	}
	return &Section{Key: key, Version: CurrentVersion, Settings: s, UpdatedAt: &updatedAt}, nil
}

func save(ctx context.Context, q querier, key string, s Settings) (*Section, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode section %s: %w", key, err)
	}
	var updatedAt time.Time
	err = q.QueryRow(ctx,
		`INSERT INTO site_sections (key, version, settings, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET version = EXCLUDED.version, settings = EXCLUDED.settings, updated_at = NOW()
		 RETURNING updated_at`,
		key, CurrentVersion, raw,
	).Scan(&updatedAt)
	if err != nil {
		return nil, fmt.Errorf("save section %s: %w", key, err)
	}
	return &Section{Key: key, Version: CurrentVersion, Settings: s, UpdatedAt: &updatedAt}, nil
}

// mutate loads, edits and saves one section inside a transaction.
func (r *Repository) mutate(ctx context.Context, key string, fn func(Settings) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sec, err := load(ctx, tx, key, true)
	if err != nil {
		return err
	}
	if err := fn(sec.Settings); err != nil {
		return err
	}
	if _, err := save(ctx, tx, key, sec.Settings); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Single returns the path held by a single-file section slot.
func (r *Repository) Single(ctx context.Context, key, slot string) (string, error) {
	if err := checkSlot(key, slot); err != nil {
		return "", err
	}
	sec, err := r.Load(ctx, key)
	if err != nil {
		return "", err
	}
	field, ok := singleField(sec.Settings, slot)
	if !ok {
		return "", fmt.Errorf("%w: section %s/%s", media.ErrSlotType, key, slot)
	}
	return *field, nil
}

// SetSingle stores path in a single-file section slot; "" clears it.
func (r *Repository) SetSingle(ctx context.Context, key, slot, path string) error {
	if err := checkSlot(key, slot); err != nil {
		return err
	}
	return r.mutate(ctx, key, func(s Settings) error {
		field, ok := singleField(s, slot)
		if !ok {
			return fmt.Errorf("%w: section %s/%s", media.ErrSlotType, key, slot)
		}
		*field = path
		return nil
	})
}

// ListPaths returns the paths held by a list section slot.
func (r *Repository) ListPaths(ctx context.Context, key, slot string) ([]string, error) {
	if err := checkSlot(key, slot); err != nil {
		return nil, err
	}
	sec, err := r.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	field, ok := listField(sec.Settings, slot)
	if !ok {
		return nil, fmt.Errorf("%w: section %s/%s", media.ErrSlotType, key, slot)
	}
	return *field, nil
}

// SetList replaces the paths held by a list section slot.
func (r *Repository) SetList(ctx context.Context, key, slot string, paths []string) error {
	if err := checkSlot(key, slot); err != nil {
		return err
	}
	return r.mutate(ctx, key, func(s Settings) error {
		field, ok := listField(s, slot)
		if !ok {
			return fmt.Errorf("%w: section %s/%s", media.ErrSlotType, key, slot)
		}
		*field = append([]string{}, paths...)
		return nil
	})
}

// Cascade always fails: sections are fixed and cannot be deleted.
func (r *Repository) Cascade(context.Context, string) (*media.Cascade, error) {
	return nil, media.ErrCascadeUnsupported
}

// DeleteCascade always fails: sections are fixed and cannot be deleted.
func (r *Repository) DeleteCascade(context.Context, string, *media.Cascade) error {
	return media.ErrCascadeUnsupported
}
