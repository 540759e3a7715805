package catalog

import (
	"context"
	"fmt"
	"strings"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
)

type Backend interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEventsByCategory(ctx context.Context, categoryID int64) ([]models.Event, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
}

// Filter narrows the event list. Zero values match everything.
type Filter struct {
	CategoryID int64
	Search     string
}

// Match keeps events of the category whose name or location contains the
// search text, ignoring case.
func (f Filter) Match(e models.Event) bool {
	if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Search))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name), query) ||
		strings.Contains(strings.ToLower(e.Location), query)
}

func FilterEvents(events []models.Event, f Filter) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

type Service struct {
	Backend Backend
	Logger  *logger.Logger
}

func NewService(b Backend, log *logger.Logger) *Service {
	return &Service{Backend: b, Logger: log}
}

// Events lists the filtered catalog. A failed fetch shows as an empty list.
func (s *Service) Events(ctx context.Context, f Filter) []models.Event {
	events, err := s.Backend.ListEvents(ctx)
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Error fetching events: %v", err))
		return []models.Event{}
	}
	return FilterEvents(events, f)
}

func (s *Service) Event(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.Backend.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", id, err)
	}
	return event, nil
}

func (s *Service) EventsByCategory(ctx context.Context, categoryID int64) []models.Event {
	events, err := s.Backend.ListEventsByCategory(ctx, categoryID)
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Error fetching events of category %d: %v", categoryID, err))
		return []models.Event{}
	}
	if events == nil {
		events = []models.Event{}
	}
	return events
}

func (s *Service) Categories(ctx context.Context) []models.Category {
	categories, err := s.Backend.ListCategories(ctx)
	if err != nil {
		s.Logger.Error("CATALOG", fmt.Sprintf("Error fetching categories: %v", err))
		return []models.Category{}
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories
}

func (s *Service) Category(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.Backend.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("category %d: %w", id, err)
	}
	return category, nil
}
