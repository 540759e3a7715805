package tickets

import (
	"context"
	"fmt"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/tickets/qr"
	"eventix-gateway/internal/tickets/template"
	"eventix-gateway/internal/utils"
)

type Backend interface {
	ListReservationsByUser(ctx context.Context, userID int64) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListTicketsByReservation(ctx context.Context, reservationID int64) ([]models.Ticket, error)
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
}

// Entry is one ticket as shown in the user's ticket list.
type Entry struct {
	models.Ticket
	EventID       int64         `json:"event_id"`
	SeatsReserved int64         `json:"seats_reserved"`
	EventName     string        `json:"eventName"`
	Event         *models.Event `json:"event,omitempty"`
}

func newEntry(ticket models.Ticket, res models.Reservation, event *models.Event) Entry {
	entry := Entry{
		Ticket:        ticket,
		EventID:       res.EventID,
		SeatsReserved: res.SeatsReserved,
		EventName:     res.EventName,
		Event:         event,
	}
	entry.ReservationID = res.ID
	if event != nil {
		entry.EventName = event.Name
	}
	return entry
}

type Service struct {
	Backend Backend
	Logger  *logger.Logger
}

func NewService(b Backend, log *logger.Logger) *Service {
	return &Service{Backend: b, Logger: log}
}

// eventCache remembers fetched events for one listing. Failures are not
// cached, so a later reservation of the same event retries.
type eventCache struct {
	backend Backend
	events  map[int64]*models.Event
}

func (c *eventCache) get(ctx context.Context, id int64) (*models.Event, error) {
	if event, ok := c.events[id]; ok {
		return event, nil
	}
	event, err := c.backend.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.events[id] = event
	return event, nil
}

// ListForUser gathers the tickets of every reservation the user holds.
// Reservations whose tickets cannot be fetched are left out.
func (s *Service) ListForUser(ctx context.Context, user models.User) []Entry {
	entries := []Entry{}

	reservations, err := s.Backend.ListReservationsByUser(ctx, user.ID)
	if err != nil {
		s.Logger.Error("TICKETS", fmt.Sprintf("Error fetching reservations of user %d: %v", user.ID, err))
		return entries
	}
	if len(reservations) == 0 {
		return entries
	}

	cache := &eventCache{backend: s.Backend, events: make(map[int64]*models.Event)}
	for _, res := range reservations {
		event, err := cache.get(ctx, res.EventID)
		if err != nil {
			s.Logger.Warn("TICKETS", fmt.Sprintf("Event %d of reservation %d unavailable: %v", res.EventID, res.ID, err))
		}

		tickets, err := s.Backend.ListTicketsByReservation(ctx, res.ID)
		if err != nil {
			s.Logger.Error("TICKETS", fmt.Sprintf("Error fetching tickets of reservation %d: %v", res.ID, err))
			continue
		}
		for _, ticket := range tickets {
			entries = append(entries, newEntry(ticket, res, event))
		}
	}
	return entries
}

// ByCode returns the ticket with code if user holds it. Admins see every ticket.
func (s *Service) ByCode(ctx context.Context, user models.User, code string) (*Entry, error) {
	if code == "" {
		return nil, utils.NewValidationError("Ticket code is required.")
	}

	ticket, err := s.Backend.GetTicketByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("ticket %s: %w", code, err)
	}
	res, err := s.Backend.GetReservation(ctx, ticket.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %d of ticket %s: %w", ticket.ReservationID, code, err)
	}
	if res.UserID != user.ID && !user.IsAdmin() {
		s.Logger.LogSecurity("TICKET_ACCESS", fmt.Sprintf("user %d asked for ticket %s of user %d", user.ID, code, res.UserID))
		return nil, fmt.Errorf("ticket %s: %w", code, utils.ErrNotFound)
	}

	event, err := s.Backend.GetEvent(ctx, res.EventID)
	if err != nil {
		s.Logger.Warn("TICKETS", fmt.Sprintf("Event %d of ticket %s unavailable: %v", res.EventID, code, err))
		event = nil
	}
	entry := newEntry(*ticket, *res, event)
	return &entry, nil
}

func (s *Service) QR(ctx context.Context, user models.User, code string) ([]byte, error) {
	entry, err := s.ByCode(ctx, user, code)
	if err != nil {
		return nil, err
	}
	png, err := qr.Encode(entry.TicketCode, qr.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// Pass renders the printable PDF pass of a ticket.
func (s *Service) Pass(ctx context.Context, user models.User, code string) ([]byte, error) {
	entry, err := s.ByCode(ctx, user, code)
	if err != nil {
		return nil, err
	}
	png, err := qr.Encode(entry.TicketCode, qr.DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	data := template.PassData{
		TicketCode:    entry.TicketCode,
		Status:        string(entry.Status),
		EventName:     entry.EventName,
		HolderName:    user.Name,
		SeatsReserved: entry.SeatsReserved,
		ReservationID: entry.ReservationID,
		QRCodePNG:     png,
	}
	if entry.Event != nil {
		data.Location = entry.Event.Location
		data.Date = entry.Event.Date.String()
		data.StartTime = entry.Event.StartTime.String()
	}

	pdf, err := template.GeneratePass(data)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("TICKETS", fmt.Sprintf("Generated pass for ticket %s", entry.TicketCode))
	return pdf, nil
}
