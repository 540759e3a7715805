package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLatch(t *testing.T) (*Latch, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLatch(client, time.Hour, time.Minute), mr
}

func TestClaim_OnlyOnce(t *testing.T) {
	l, _ := newLatch(t)
	ctx := context.Background()

	ok, err := l.Claim(ctx, 7, "PAID")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Claim(ctx, 7, "CANCELLED")
	require.NoError(t, err)
	assert.False(t, ok)

	outcome, err := l.Outcome(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "PAID", outcome)

	outcome, err = l.Outcome(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, outcome)
}

func TestClaim_ConcurrentSingleWinner(t *testing.T) {
	l, _ := newLatch(t)
	var wins int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := l.Claim(context.Background(), 9, "CANCELLED"); err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestView_MarkRefreshExpire(t *testing.T) {
	l, mr := newLatch(t)
	ctx := context.Background()

	require.NoError(t, l.MarkView(ctx, 3, "sid"))
	got, err := mr.Get("checkout:view:3")
	require.NoError(t, err)
	assert.Equal(t, "sid", got)
	assert.Equal(t, time.Minute, mr.TTL("checkout:view:3"))

	mr.FastForward(30 * time.Second)
	ok, err := l.RefreshView(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("checkout:view:3"))

	mr.FastForward(2 * time.Minute)
	ok, err = l.RefreshView(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReservationFromViewKey(t *testing.T) {
	id, ok := ReservationFromViewKey("checkout:view:42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = ReservationFromViewKey("session:42")
	assert.False(t, ok)
	_, ok = ReservationFromViewKey("checkout:view:abc")
	assert.False(t, ok)
}

func TestLockPayment_ExclusiveUntilUnlocked(t *testing.T) {
	l, mr := newLatch(t)
	ctx := context.Background()

	ok, err := l.LockPayment(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, PayLockTTL, mr.TTL("checkout:paying:7"))

	ok, err = l.LockPayment(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.UnlockPayment(ctx, 7))
	ok, err = l.LockPayment(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}
