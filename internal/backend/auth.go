package backend

import (
	"context"
	"net/http"
	"net/url"

	"eventix-gateway/internal/models"
)

// Register creates an account. The backend answers with the new user.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, Credentials, error) {
	var user models.User
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", "/auth/register", nil, req, &user)
	if err != nil {
		return nil, nil, err
	}
	return &user, credentialsFromCookies(resp.Cookies()), nil
}

// Login authenticates with email and password as query parameters and returns
// the backend session cookies alongside the user.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, Credentials, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("password", password)

	var user models.User
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", "/auth/login", query, nil, &user)
	if err != nil {
		return nil, nil, err
	}
	return &user, credentialsFromCookies(resp.Cookies()), nil
}
