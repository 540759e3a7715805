package backend

import (
	"context"
	"fmt"
	"net/http"

	"eventix-gateway/internal/models"
)

func (c *Client) CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error) {
	var reservation models.Reservation
	if _, err := c.doJSON(ctx, http.MethodPost, "/reservations", "/reservations", nil, req, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (c *Client) ListReservationsByUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	var reservations []models.Reservation
	_, err := c.doJSON(ctx, http.MethodGet, "/reservations/{userId}", fmt.Sprintf("/reservations/%d", userID), nil, nil, &reservations)
	return reservations, err
}

func (c *Client) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	if _, err := c.doJSON(ctx, http.MethodGet, "/reservations/detail/{id}", fmt.Sprintf("/reservations/detail/%d", id), nil, nil, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation releases the seat hold of a reservation.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/reservations/{id}", fmt.Sprintf("/reservations/%d", id), nil, nil, nil)
	return err
}
