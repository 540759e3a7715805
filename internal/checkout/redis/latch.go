package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	processedPrefix = "checkout:processed:"
	payingPrefix    = "checkout:paying:"
	ViewPrefix      = "checkout:view:"
)

// PayLockTTL bounds one payment attempt. It outlasts the backend timeout.
const PayLockTTL = 30 * time.Second

// Latch holds the one-shot processed flag and the view-alive key of every
// payment view. The flag is claimed with SETNX so that exactly one of payment,
// back and teardown wins across goroutines and gateway replicas.
type Latch struct {
	Client  *redis.Client
	TTL     time.Duration
	ViewTTL time.Duration
}

func NewLatch(client *redis.Client, ttl, viewTTL time.Duration) *Latch {
	return &Latch{Client: client, TTL: ttl, ViewTTL: viewTTL}
}

func processedKey(reservationID int64) string {
	return processedPrefix + strconv.FormatInt(reservationID, 10)
}

func payingKey(reservationID int64) string {
	return payingPrefix + strconv.FormatInt(reservationID, 10)
}

func viewKey(reservationID int64) string {
	return ViewPrefix + strconv.FormatInt(reservationID, 10)
}

// ReservationFromViewKey parses the id out of an expired view key.
func ReservationFromViewKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, ViewPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, ViewPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Claim sets the processed flag to outcome. It reports false when someone
// else already claimed it.
func (l *Latch) Claim(ctx context.Context, reservationID int64, outcome string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, processedKey(reservationID), outcome, l.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim checkout %d: %w", reservationID, err)
	}
	return ok, nil
}

// Outcome returns the claimed outcome, or "" while unclaimed.
func (l *Latch) Outcome(ctx context.Context, reservationID int64) (string, error) {
	val, err := l.Client.Get(ctx, processedKey(reservationID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checkout %d: %w", reservationID, err)
	}
	return val, nil
}

// MarkView records that sessionID shows the payment view, for ViewTTL.
func (l *Latch) MarkView(ctx context.Context, reservationID int64, sessionID string) error {
	if err := l.Client.Set(ctx, viewKey(reservationID), sessionID, l.ViewTTL).Err(); err != nil {
		return fmt.Errorf("mark view %d: %w", reservationID, err)
	}
	return nil
}

// RefreshView extends the view TTL. It reports false when the view is gone.
func (l *Latch) RefreshView(ctx context.Context, reservationID int64) (bool, error) {
	ok, err := l.Client.Expire(ctx, viewKey(reservationID), l.ViewTTL).Result()
	if err != nil {
		return false, fmt.Errorf("refresh view %d: %w", reservationID, err)
	}
	return ok, nil
}

func (l *Latch) DropView(ctx context.Context, reservationID int64) error {
	if err := l.Client.Del(ctx, viewKey(reservationID)).Err(); err != nil {
		return fmt.Errorf("drop view %d: %w", reservationID, err)
	}
	return nil
}

// LockPayment takes the per-reservation payment lock. It reports false while
// another payment attempt holds it.
func (l *Latch) LockPayment(ctx context.Context, reservationID int64) (bool, error) {
	ok, err := l.Client.SetNX(ctx, payingKey(reservationID), "1", PayLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("lock payment %d: %w", reservationID, err)
	}
	return ok, nil
}

func (l *Latch) UnlockPayment(ctx context.Context, reservationID int64) error {
	if err := l.Client.Del(ctx, payingKey(reservationID)).Err(); err != nil {
		return fmt.Errorf("unlock payment %d: %w", reservationID, err)
	}
	return nil
}
