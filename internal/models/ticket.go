package models

type TicketStatus string

const (
	TicketActive   TicketStatus = "ACTIVE"
	TicketUsed     TicketStatus = "USED"
	TicketCanceled TicketStatus = "CANCELED"
)

type Ticket struct {
	ID            int64        `json:"id"`
	ReservationID int64        `json:"reservation_id"`
	TicketCode    string       `json:"ticketCode"`
	CheckedIn     bool         `json:"checked_in"`
	Status        TicketStatus `json:"status,omitempty"`
}
