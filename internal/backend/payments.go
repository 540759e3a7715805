package backend

import (
	"context"
	"fmt"
	"net/http"

	"eventix-gateway/internal/models"
)

func (c *Client) CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	var created models.Payment
	if _, err := c.doJSON(ctx, http.MethodPost, "/payments", "/payments", nil, payment, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetPaymentByReservation(ctx context.Context, reservationID int64) (*models.Payment, error) {
	var payment models.Payment
	if _, err := c.doJSON(ctx, http.MethodGet, "/payments/reservation/{id}", fmt.Sprintf("/payments/reservation/%d", reservationID), nil, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
