package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"eventix-gateway/internal/models"
)

func (c *Client) CreateEvent(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	var event models.Event
	if _, err := c.doJSON(ctx, http.MethodPost, "/admin/events", "/admin/events", nil, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id int64, req models.EventRequest) (*models.Event, error) {
	var event models.Event
	if _, err := c.doJSON(ctx, http.MethodPut, "/admin/events/{id}", fmt.Sprintf("/admin/events/%d", id), nil, req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/admin/events/{id}", fmt.Sprintf("/admin/events/%d", id), nil, nil, nil)
	return err
}

// UploadEventImage posts the image as multipart field "file" and returns the stored image URL.
func (c *Client) UploadEventImage(ctx context.Context, eventID int64, filename, contentType string, image io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("failed to copy image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/admin/events/%d/image", eventID), nil, &body, writer.FormDataContentType())
	if err != nil {
		return "", err
	}

	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	if _, err := c.send(req, "/admin/events/{id}/image", &out); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}

func (c *Client) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	var category models.Category
	if _, err := c.doJSON(ctx, http.MethodPost, "/admin/categories", "/admin/categories", nil, req, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/admin/categories/{id}", fmt.Sprintf("/admin/categories/%d", id), nil, nil, nil)
	return err
}

func (c *Client) ListAllReservations(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	_, err := c.doJSON(ctx, http.MethodGet, "/admin/reservations", "/admin/reservations", nil, nil, &reservations)
	return reservations, err
}

func (c *Client) AdminCancelReservation(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/admin/reservations/{id}", fmt.Sprintf("/admin/reservations/%d", id), nil, nil, nil)
	return err
}

func (c *Client) ListAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	_, err := c.doJSON(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, nil, &users)
	return users, err
}
