package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store abstracts persistence so the service can be tested in memory.
type Store interface {
	Get(ctx context.Context, id string) (Case, error)
	Create(ctx context.Context, c Case) (Case, error)
	Update(ctx context.Context, c Case) (Case, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters ListFilters) ([]Case, error)
	Search(ctx context.Context, term string, filters ListFilters) ([]Case, error)
}

// Service orchestrates case operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateInput carries the fields accepted on case creation.
type CreateInput struct {
	CaseNumber  string
	Title       string
	Description string
	OwnerID     string
	LawFirmID   string
}

// Create registers a new case owned by the creating subject.
func (s *Service) Create(ctx context.Context, input CreateInput) (Case, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Case{}, errors.New("cases: title required")
	}
	if input.OwnerID == "" {
		return Case{}, errors.New("cases: owner required")
	}
	now := s.now().UTC()
	c := Case{
		ID:          uuid.NewString(),
		CaseNumber:  strings.TrimSpace(input.CaseNumber),
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Status:      StatusOpen,
		OwnerID:     input.OwnerID,
		LawFirmID:   input.LawFirmID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.store.Create(ctx, c)
}

// Get fetches a single case.
func (s *Service) Get(ctx context.Context, id string) (Case, error) {
	return s.store.Get(ctx, id)
}

// UpdateInput carries the mutable case fields.
type UpdateInput struct {
	Title       string
	Description string
	Status      string
}

// Update replaces the mutable fields of an existing case.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Case, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Case{}, err
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		existing.Title = title
	}
	if input.Description != "" {
		existing.Description = strings.TrimSpace(input.Description)
	}
	if input.Status != "" {
		switch input.Status {
		case StatusOpen, StatusPending, StatusClosed:
			existing.Status = input.Status
		default:
			return Case{}, fmt.Errorf("cases: invalid status %q", input.Status)
		}
	}
	existing.UpdatedAt = s.now().UTC()
	return s.store.Update(ctx, existing)
}

// Delete removes a case.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// List returns cases matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Case, error) {
	clampFilters(&filters)
	return s.store.List(ctx, filters)
}

// Search runs a text search over cases.
func (s *Service) Search(ctx context.Context, term string, filters ListFilters) ([]Case, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("cases: search term required")
	}
	clampFilters(&filters)
	return s.store.Search(ctx, term, filters)
}

func clampFilters(filters *ListFilters) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
}
