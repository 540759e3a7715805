package checkout

import (
	"context"
	"fmt"
	"strings"

	rediswrap "eventix-gateway/internal/checkout/redis"
	"eventix-gateway/internal/logger"

	"github.com/go-redis/redis/v8"
)

// Expirer is what the watcher calls for every payment view whose TTL ran out.
type Expirer interface {
	Expire(ctx context.Context, reservationID int64)
}

// ExpiryWatcher turns Redis expired-key notifications on checkout:view:*
// into teardowns.
type ExpiryWatcher struct {
	Client  *redis.Client
	Expirer Expirer
	Logger  *logger.Logger
}

func NewExpiryWatcher(client *redis.Client, expirer Expirer, log *logger.Logger) *ExpiryWatcher {
	return &ExpiryWatcher{Client: client, Expirer: expirer, Logger: log}
}

// EnableNotifications turns on expired-key events. Managed Redis may refuse
// CONFIG SET, in which case the server config has to carry "Ex".
func (w *ExpiryWatcher) EnableNotifications(ctx context.Context) {
	if err := w.Client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		w.Logger.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		w.Logger.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	val, err := w.Client.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		w.Logger.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
		return
	}
	if len(val) < 2 {
		w.Logger.Warn("REDIS", "Keyspace notifications not properly configured for expiry events!")
		return
	}
	if setting, _ := val[1].(string); !strings.Contains(setting, "x") || !(strings.Contains(setting, "E") || strings.Contains(setting, "A")) {
		w.Logger.Warn("REDIS", fmt.Sprintf("Keyspace notifications %q do not include expired key events", setting))
	}
}

func (w *ExpiryWatcher) channel() string {
	return fmt.Sprintf("__keyevent@%d__:expired", w.Client.Options().DB)
}

// Run blocks until ctx is done, handling one expired key at a time.
func (w *ExpiryWatcher) Run(ctx context.Context) error {
	pubsub := w.Client.PSubscribe(ctx, w.channel())
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.channel(), err)
	}
	w.Logger.Info("REDIS", fmt.Sprintf("Subscribed to %s", w.channel()))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.HandleExpired(ctx, msg.Payload)
		}
	}
}

// HandleExpired reacts to one expired key. Other keys are ignored.
func (w *ExpiryWatcher) HandleExpired(ctx context.Context, key string) bool {
	reservationID, ok := rediswrap.ReservationFromViewKey(key)
	if !ok {
		return false
	}
	w.Logger.LogCheckout("VIEW_EXPIRED", reservationID, "payment view stopped sending heartbeats")
	w.Expirer.Expire(ctx, reservationID)
	return true
}
