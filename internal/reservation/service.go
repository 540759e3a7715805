package reservation

import (
	"context"
	"fmt"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"
)

type Backend interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error)
}

// Checkout starts the payment lifecycle of a fresh reservation.
type Checkout interface {
	Begin(ctx context.Context, sess *auth.Session, res *models.Reservation, event *models.Event) error
}

// Step is a quantity button press.
type Step string

const (
	StepNone      Step = ""
	StepIncrement Step = "inc"
	StepDecrement Step = "dec"
)

func ParseStep(raw string) (Step, error) {
	switch Step(raw) {
	case StepNone, StepIncrement, StepDecrement:
		return Step(raw), nil
	}
	return StepNone, utils.NewValidationError(fmt.Sprintf("unknown step %q", raw))
}

// Quote is the state of the quantity picker after a step.
type Quote struct {
	EventID        int64  `json:"eventId"`
	Quantity       int64  `json:"quantity"`
	AvailableSeats int64  `json:"availableSeats"`
	SoldOut        bool   `json:"soldOut"`
	CanIncrement   bool   `json:"canIncrement"`
	CanDecrement   bool   `json:"canDecrement"`
	PricePerTicket string `json:"pricePerTicket"`
	TotalPrice     string `json:"totalPrice"`
}

// Result of a successful reservation. The view waits RedirectAfterMs before
// moving to Redirect.
type Result struct {
	Reservation     *models.Reservation `json:"reservation"`
	TotalPrice      string              `json:"totalPrice"`
	Redirect        string              `json:"redirect"`
	RedirectAfterMs int                 `json:"redirectAfterMs"`
}

const redirectDelayMs = 2000

type Service struct {
	Backend  Backend
	Checkout Checkout
	Logger   *logger.Logger
}

func NewService(b Backend, checkout Checkout, log *logger.Logger) *Service {
	return &Service{Backend: b, Checkout: checkout, Logger: log}
}

func (s *Service) event(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.Backend.GetEvent(ctx, eventID)
	if err != nil {
		s.Logger.Error("RESERVATION", fmt.Sprintf("Event %d loading failed: %v", eventID, err))
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}
	return event, nil
}

func quoteFor(event *models.Event, q Quantity) *Quote {
	return &Quote{
		EventID:        event.ID,
		Quantity:       q.Value(),
		AvailableSeats: event.AvailableSeats,
		SoldOut:        event.SoldOut(),
		CanIncrement:   q.CanIncrement(),
		CanDecrement:   q.CanDecrement(),
		PricePerTicket: event.PriceBase.StringFixed(2),
		TotalPrice:     TotalPrice(event.PriceBase, q.Value()),
	}
}

// Quote applies step to the current quantity against the live seat count.
func (s *Service) Quote(ctx context.Context, eventID, current int64, step Step) (*Quote, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	q := NewQuantity(event.AvailableSeats)
	q.Set(current)
	switch step {
	case StepIncrement:
		q.Increment()
	case StepDecrement:
		q.Decrement()
	}
	return quoteFor(event, q), nil
}

// Reserve holds quantity seats for the session user and opens the checkout.
// The requested quantity is clamped to the seats still available.
func (s *Service) Reserve(ctx context.Context, sess *auth.Session, eventID, quantity int64) (*Result, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.SoldOut() {
		return nil, utils.NewValidationError("This event is sold out.")
	}

	q := NewQuantity(event.AvailableSeats)
	q.Set(quantity)

	res, err := s.Backend.CreateReservation(ctx, models.ReservationRequest{
		UserID:        sess.User.ID,
		EventID:       event.ID,
		SeatsReserved: q.Value(),
	})
	if err != nil {
		s.Logger.Error("RESERVATION", fmt.Sprintf("Reservation of %d seats for event %d failed: %v", q.Value(), event.ID, err))
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	s.Logger.Info("RESERVATION", fmt.Sprintf("Reservation %d created: user=%d event=%d seats=%d", res.ID, sess.User.ID, event.ID, q.Value()))

	if err := s.Checkout.Begin(ctx, sess, res, event); err != nil {
		s.Logger.Error("RESERVATION", fmt.Sprintf("Failed to open checkout for reservation %d: %v", res.ID, err))
	}

	return &Result{
		Reservation:     res,
		TotalPrice:      TotalPrice(event.PriceBase, q.Value()),
		Redirect:        fmt.Sprintf("/payment/%d", res.ID),
		RedirectAfterMs: redirectDelayMs,
	}, nil
}
