package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventix-gateway/internal/models"

	"github.com/uptrace/bun"
)

// DB is the local checkout journal.
type DB struct {
	Bun *bun.DB
}

// SaveCheckout inserts the record. A reservation already journaled takes
// over the new session and keeps its state.
func (d *DB) SaveCheckout(ctx context.Context, rec *models.CheckoutRecord) error {
	now := time.Now().UTC()
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = now
	}
	rec.UpdatedAt = now

	_, err := d.Bun.NewInsert().
		Model(rec).
		On("CONFLICT (reservation_id) DO UPDATE").
		Set("session_id = EXCLUDED.session_id").
		Set("user_id = EXCLUDED.user_id").
		Set("event_id = EXCLUDED.event_id").
		Set("seats = EXCLUDED.seats").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// GetCheckout returns nil, nil when the reservation was never journaled.
func (d *DB) GetCheckout(ctx context.Context, reservationID int64) (*models.CheckoutRecord, error) {
	var rec models.CheckoutRecord
	err := d.Bun.NewSelect().
		Model(&rec).
		Where("reservation_id = ?", reservationID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateState moves the record to state. method and cancelErr are kept
// when empty.
func (d *DB) UpdateState(ctx context.Context, reservationID int64, state models.CheckoutState, method, cancelErr string) error {
	q := d.Bun.NewUpdate().
		Model((*models.CheckoutRecord)(nil)).
		Set("state = ?", state).
		Set("updated_at = ?", time.Now().UTC()).
		Where("reservation_id = ?", reservationID)
	if method != "" {
		q = q.Set("method = ?", method)
	}
	if cancelErr != "" {
		q = q.Set("cancel_error = ?", cancelErr)
	}
	_, err := q.Exec(ctx)
	return err
}

// ListCheckouts returns the most recently updated records first.
func (d *DB) ListCheckouts(ctx context.Context, state models.CheckoutState, limit int) ([]models.CheckoutRecord, error) {
	records := []models.CheckoutRecord{}
	q := d.Bun.NewSelect().
		Model(&records).
		OrderExpr("updated_at DESC").
		Limit(limit)
	if state != "" {
		q = q.Where("state = ?", state)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

// CountByState counts journaled checkouts per state.
func (d *DB) CountByState(ctx context.Context) (map[models.CheckoutState]int, error) {
	var rows []struct {
		State models.CheckoutState `bun:"state"`
		Count int                  `bun:"count"`
	}
	err := d.Bun.NewSelect().
		ColumnExpr("state").
		ColumnExpr("COUNT(*) AS count").
		TableExpr("checkouts").
		GroupExpr("state").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.CheckoutState]int, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
