package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CheckoutState string

const (
	CheckoutIdle           CheckoutState = "IDLE"
	CheckoutPendingPayment CheckoutState = "PENDING_PAYMENT"
	CheckoutPaid           CheckoutState = "PAID"
	CheckoutCancelled      CheckoutState = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s CheckoutState) Terminal() bool {
	return s == CheckoutPaid || s == CheckoutCancelled
}

// CheckoutRecord is the local journal row of one payment view.
type CheckoutRecord struct {
	bun.BaseModel `bun:"table:checkouts"`

	ReservationID int64         `bun:"reservation_id,pk" json:"reservation_id"`
	SessionID     string        `bun:"session_id" json:"-"`
	UserID        int64         `bun:"user_id" json:"user_id"`
	EventID       int64         `bun:"event_id" json:"event_id"`
	Seats         int64         `bun:"seats" json:"seats"`
	Amount        string        `bun:"amount" json:"amount"`
	Method        string        `bun:"method,nullzero" json:"method,omitempty"`
	State         CheckoutState `bun:"state" json:"state"`
	CancelError   string        `bun:"cancel_error,nullzero" json:"cancel_error,omitempty"`
	OpenedAt      time.Time     `bun:"opened_at" json:"opened_at"`
	UpdatedAt     time.Time     `bun:"updated_at" json:"updated_at"`
}

// CheckoutEvent is the message published on every lifecycle transition.
type CheckoutEvent struct {
	ReservationID int64         `json:"reservation_id"`
	UserID        int64         `json:"user_id"`
	EventID       int64         `json:"event_id"`
	Seats         int64         `json:"seats"`
	Amount        string        `json:"amount,omitempty"`
	Method        string        `json:"method,omitempty"`
	State         CheckoutState `json:"state"`
	Trigger       string        `json:"trigger"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
