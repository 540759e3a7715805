package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"eventix-gateway/internal/models"
)

func (c *Client) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	_, err := c.doJSON(ctx, http.MethodGet, "/tickets", "/tickets", nil, nil, &tickets)
	return tickets, err
}

func (c *Client) GetTicketByReservation(ctx context.Context, reservationID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	if _, err := c.doJSON(ctx, http.MethodGet, "/tickets/reservation/{id}", fmt.Sprintf("/tickets/reservation/%d", reservationID), nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListTicketsByReservation accepts either a JSON array or a single ticket object.
func (c *Client) ListTicketsByReservation(ctx context.Context, reservationID int64) ([]models.Ticket, error) {
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, http.MethodGet, "/tickets/byReservation/{id}", fmt.Sprintf("/tickets/byReservation/%d", reservationID), nil, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Ticket{}, nil
	}
	if trimmed[0] == '[' {
		var tickets []models.Ticket
		if err := json.Unmarshal(trimmed, &tickets); err != nil {
			return nil, fmt.Errorf("failed to decode tickets: %w", err)
		}
		return tickets, nil
	}

	var ticket models.Ticket
	if err := json.Unmarshal(trimmed, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}
	return []models.Ticket{ticket}, nil
}

func (c *Client) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	if _, err := c.doJSON(ctx, http.MethodGet, "/tickets/code/{code}", "/tickets/code/"+url.PathEscape(code), nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}
