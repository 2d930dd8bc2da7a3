package restaurant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrInvalidInput wraps validation failures.
var ErrInvalidInput = errors.New("invalid restaurant")

// Input is the editable text of a restaurant.
type Input struct {
	Name        string `json:"name"        example:"Green Table"`
	Slug        string `json:"slug"        example:"green-table"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Website     string `json:"website"     example:"https://greentable.example"`
}

// Normalize trims every field and lowercases the slug.
func (in *Input) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.Website = strings.TrimSpace(in.Website)
}

// Validate checks required fields and formats.
func (in Input) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !slugRegex.MatchString(in.Slug) {
		return fmt.Errorf("%w: slug must be lowercase words separated by dashes", ErrInvalidInput)
	}
	if in.Website != "" {
		u, err := url.Parse(in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: website must be an http(s) URL", ErrInvalidInput)
		}
	}
	return nil
}

// Store is the persistence the restaurant Service depends on.
type Store interface {
	List(ctx context.Context) ([]Restaurant, error)
	GetByID(ctx context.Context, id string) (*Restaurant, error)
	Create(ctx context.Context, in Input) (*Restaurant, error)
	Update(ctx context.Context, id string, in Input) (*Restaurant, error)
}

// Service contains business logic for restaurants.
type Service struct {
	repo Store
}

// NewService creates a new restaurant Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// List returns every restaurant.
func (s *Service) List(ctx context.Context) ([]Restaurant, error) {
	return s.repo.List(ctx)
}

// Get returns one restaurant.
func (s *Service) Get(ctx context.Context, id string) (*Restaurant, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and inserts a restaurant.
func (s *Service) Create(ctx context.Context, in Input) (*Restaurant, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

// Update validates and saves the text fields of a restaurant.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Restaurant, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}
