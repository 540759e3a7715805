package admin

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"
)

// MaxImageSize caps event image uploads.
const MaxImageSize = 10 << 20

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsImageType reports whether contentType may be uploaded as an event image.
func IsImageType(contentType string) bool {
	return imageTypes[strings.ToLower(strings.TrimSpace(contentType))]
}

type Backend interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, req models.EventRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, req models.EventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
	UploadEventImage(ctx context.Context, eventID int64, filename, contentType string, image io.Reader) (string, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListAllReservations(ctx context.Context) ([]models.Reservation, error)
	AdminCancelReservation(ctx context.Context, id int64) error

	ListAllUsers(ctx context.Context) ([]models.User, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	Backend Backend
	Logger  *logger.Logger
}

func NewService(b Backend, log *logger.Logger) *Service {
	return &Service{Backend: b, Logger: log}
}

// Events lists every event. A failed fetch shows as an empty list.
func (s *Service) Events(ctx context.Context) []models.Event {
	events, err := s.Backend.ListEvents(ctx)
	if err != nil || events == nil {
		s.logListFailure("events", err)
		return []models.Event{}
	}
	return events
}

// CreateEvent requires a name, a date and a category. Available seats
// default to the capacity and the owner to the acting admin.
func (s *Service) CreateEvent(ctx context.Context, actor models.User, req models.EventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Name) == "" || req.Date.IsZero() || req.CategoryID == 0 {
		return nil, utils.NewValidationError("Please fill all required fields.")
	}
	if err := validateEvent(req); err != nil {
		return nil, err
	}
	normalizeEvent(&req, actor)

	event, err := s.Backend.CreateEvent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("User %d created event %d (%s)", actor.ID, event.ID, event.Name))
	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, actor models.User, id int64, req models.EventRequest) (*models.Event, error) {
	if err := validateEvent(req); err != nil {
		return nil, err
	}
	normalizeEvent(&req, actor)

	event, err := s.Backend.UpdateEvent(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", id, err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("User %d updated event %d", actor.ID, id))
	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, actor models.User, id int64) error {
	if err := s.Backend.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("User %d deleted event %d", actor.ID, id))
	return nil
}

// UploadImage passes an image through to the backend and returns its URL.
func (s *Service) UploadImage(ctx context.Context, eventID int64, filename, contentType string, size int64, image io.Reader) (string, error) {
	if size == 0 {
		return "", utils.NewValidationError("File cannot be empty.")
	}
	if size > MaxImageSize {
		return "", utils.NewValidationError("File is too large.")
	}
	if !IsImageType(contentType) {
		return "", utils.NewValidationError("Invalid file type. Only images are allowed.")
	}

	url, err := s.Backend.UploadEventImage(ctx, eventID, filename, strings.ToLower(contentType), image)
	if err != nil {
		return "", fmt.Errorf("failed to upload image of event %d: %w", eventID, err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("Uploaded image %s for event %d", url, eventID))
	return url, nil
}

func validateEvent(req models.EventRequest) error {
	if utf8.RuneCountInString(req.Name) > 255 {
		return utils.NewValidationError("Event Name must be between 1 and 255 characters.")
	}
	if utf8.RuneCountInString(req.Location) > 1000 {
		return utils.NewValidationError("Event Location must be between 1 and 1000 characters.")
	}
	if req.TotalCapacity < 0 {
		return utils.NewValidationError("Number of Attendance cannot be negative.")
	}
	if req.PriceBase.IsNegative() {
		return utils.NewValidationError("Price cannot be negative.")
	}
	return nil
}

func normalizeEvent(req *models.EventRequest, actor models.User) {
	req.Name = strings.TrimSpace(req.Name)
	if req.AvailableSeats == 0 {
		req.AvailableSeats = req.TotalCapacity
	}
	if req.UserID == 0 {
		req.UserID = actor.ID
	}
	if req.StartTime.IsZero() {
		req.StartTime = req.Date
	}
}

func (s *Service) Categories(ctx context.Context) []models.Category {
	categories, err := s.Backend.ListCategories(ctx)
	if err != nil || categories == nil {
		s.logListFailure("categories", err)
		return []models.Category{}
	}
	return categories
}

// CreateCategory requires a name of 1 to 255 characters.
func (s *Service) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, utils.NewValidationError("Please enter category name.")
	}
	if utf8.RuneCountInString(req.Name) > 255 {
		return nil, utils.NewValidationError("Category Name must be between 1 and 255 characters.")
	}

	category, err := s.Backend.CreateCategory(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("Created category %d (%s)", category.ID, category.Name))
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.Backend.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("Deleted category %d", id))
	return nil
}

func (s *Service) Reservations(ctx context.Context) []models.Reservation {
	reservations, err := s.Backend.ListAllReservations(ctx)
	if err != nil || reservations == nil {
		s.logListFailure("reservations", err)
		return []models.Reservation{}
	}
	return reservations
}

func (s *Service) CancelReservation(ctx context.Context, actor models.User, id int64) error {
	if err := s.Backend.AdminCancelReservation(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel reservation %d: %w", id, err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("User %d cancelled reservation %d", actor.ID, id))
	return nil
}

func (s *Service) Users(ctx context.Context) []models.User {
	users, err := s.Backend.ListAllUsers(ctx)
	if err != nil || users == nil {
		s.logListFailure("users", err)
		return []models.User{}
	}
	return users
}

// IsAdmin asks the backend about user. Errors count as not admin.
func (s *Service) IsAdmin(ctx context.Context, user models.User) bool {
	ok, err := s.Backend.IsAdmin(ctx, user.ID)
	if err != nil {
		s.Logger.Error("ADMIN", fmt.Sprintf("Admin check for user %d failed: %v", user.ID, err))
		return false
	}
	return ok
}

func (s *Service) logListFailure(what string, err error) {
	if err != nil {
		s.Logger.Error("ADMIN", fmt.Sprintf("Error fetching %s: %v", what, err))
	}
}
