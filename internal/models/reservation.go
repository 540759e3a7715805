package models

type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "HELD"
	ReservationPaid      ReservationStatus = "PAID"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	UserName        string            `json:"userName,omitempty"`
	EventID         int64             `json:"event_id"`
	EventName       string            `json:"eventName,omitempty"`
	SeatsReserved   int64             `json:"seats_reserved"`
	Status          ReservationStatus `json:"status,omitempty"`
	ReservationDate LocalDateTime     `json:"reservationDate"`
}

type ReservationRequest struct {
	UserID        int64 `json:"user_id"`
	EventID       int64 `json:"event_id"`
	SeatsReserved int64 `json:"seats_reserved"`
}
