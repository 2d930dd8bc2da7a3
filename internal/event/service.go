package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput wraps validation failures.
var ErrInvalidInput = errors.New("invalid event")

// Input is the editable part of an event.
type Input struct {
	RestaurantID *string    `json:"restaurantId,omitempty"`
	Title        string     `json:"title"                 example:"Harvest Supper"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	StartsAt     time.Time  `json:"startsAt"              example:"2026-11-01T18:00:00Z"`
	EndsAt       *time.Time `json:"endsAt,omitempty"`
}

// Normalize trims text fields and drops an empty restaurant reference.
func (in *Input) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if in.RestaurantID != nil {
		id := strings.TrimSpace(*in.RestaurantID)
		if id == "" {
			in.RestaurantID = nil
		} else {
			in.RestaurantID = &id
		}
	}
}

// Validate checks required fields and the schedule.
func (in Input) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidInput)
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return fmt.Errorf("%w: endsAt is before startsAt", ErrInvalidInput)
	}
	if in.RestaurantID != nil {
		if _, err := uuid.Parse(*in.RestaurantID); err != nil {
			return fmt.Errorf("%w: restaurantId is not a UUID", ErrInvalidInput)
		}
	}
	return nil
}

// Store is the persistence the event Service depends on.
type Store interface {
	List(ctx context.Context, from *time.Time) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, in Input) (*Event, error)
	Update(ctx context.Context, id string, in Input) (*Event, error)
}

// Service contains business logic for events.
type Service struct {
	repo Store
	now  func() time.Time
}

// NewService creates a new event Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns events; upcomingOnly hides events that are already over.
func (s *Service) List(ctx context.Context, upcomingOnly bool) ([]Event, error) {
	if !upcomingOnly {
		return s.repo.List(ctx, nil)
	}
	now := s.now()
	return s.repo.List(ctx, &now)
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and inserts an event.
func (s *Service) Create(ctx context.Context, in Input) (*Event, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Update validates and saves an event.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Event, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}
