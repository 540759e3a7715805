package models

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Location       string          `json:"location"`
	Date           LocalDateTime   `json:"date"`
	StartTime      LocalDateTime   `json:"startTime"`
	EndTime        LocalDateTime   `json:"endTime"`
	TotalCapacity  int64           `json:"totalCapacity"`
	AvailableSeats int64           `json:"availableSeats"`
	PriceBase      decimal.Decimal `json:"priceBase"`
	CategoryID     int64           `json:"category_id"`
	UserID         int64           `json:"user_id,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
}

// SoldOut reports whether no seat can be reserved any more.
func (e Event) SoldOut() bool {
	return e.AvailableSeats < 1
}

// EventRequest is the admin create/update payload.
type EventRequest struct {
	Name           string          `json:"name"`
	CategoryID     int64           `json:"category_id"`
	Location       string          `json:"location"`
	Description    string          `json:"description,omitempty"`
	Date           LocalDateTime   `json:"date"`
	StartTime      LocalDateTime   `json:"startTime"`
	EndTime        LocalDateTime   `json:"endTime"`
	TotalCapacity  int64           `json:"totalCapacity"`
	AvailableSeats int64           `json:"availableSeats,omitempty"`
	PriceBase      decimal.Decimal `json:"priceBase"`
	UserID         int64           `json:"user_id"`
	ImageURL       string          `json:"imageUrl,omitempty"`
}
