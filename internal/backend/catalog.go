package backend

import (
	"context"
	"fmt"
	"net/http"

	"eventix-gateway/internal/models"
)

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	_, err := c.doJSON(ctx, http.MethodGet, "/events", "/events", nil, nil, &events)
	return events, err
}

func (c *Client) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	if _, err := c.doJSON(ctx, http.MethodGet, "/events/{id}", fmt.Sprintf("/events/%d", id), nil, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) ListEventsByCategory(ctx context.Context, categoryID int64) ([]models.Event, error) {
	var events []models.Event
	_, err := c.doJSON(ctx, http.MethodGet, "/events/byCategory/{id}", fmt.Sprintf("/events/byCategory/%d", categoryID), nil, nil, &events)
	return events, err
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	_, err := c.doJSON(ctx, http.MethodGet, "/categories", "/categories", nil, nil, &categories)
	return categories, err
}

func (c *Client) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if _, err := c.doJSON(ctx, http.MethodGet, "/categories/{id}", fmt.Sprintf("/categories/%d", id), nil, nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}
