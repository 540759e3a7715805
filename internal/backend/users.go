package backend

import (
	"context"
	"fmt"
	"net/http"

	"eventix-gateway/internal/models"
)

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	_, err := c.doJSON(ctx, http.MethodGet, "/users", "/users", nil, nil, &users)
	return users, err
}

func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if _, err := c.doJSON(ctx, http.MethodGet, "/users/{id}", fmt.Sprintf("/users/%d", id), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var isAdmin bool
	if _, err := c.doJSON(ctx, http.MethodGet, "/users/{id}/is-admin", fmt.Sprintf("/users/%d/is-admin", id), nil, nil, &isAdmin); err != nil {
		return false, err
	}
	return isAdmin, nil
}
