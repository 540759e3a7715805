package sse

import (
	"context"
	"sync"

	"eventix-gateway/internal/models"
)

// AllEvents subscribes to the checkouts of every event.
const AllEvents int64 = 0

const clientBuffer = 16

// CheckoutEventEmitter fans checkout transitions out to live subscribers.
type CheckoutEventEmitter struct {
	mu      sync.RWMutex
	clients map[int64][]chan models.CheckoutEvent
}

func NewCheckoutEventEmitter() *CheckoutEventEmitter {
	return &CheckoutEventEmitter{clients: make(map[int64][]chan models.CheckoutEvent)}
}

// Subscribe returns a channel receiving transitions of eventID, or of all
// events for AllEvents. The channel is closed once ctx is done.
func (e *CheckoutEventEmitter) Subscribe(ctx context.Context, eventID int64) <-chan models.CheckoutEvent {
	ch := make(chan models.CheckoutEvent, clientBuffer)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, ch)
	}()
	return ch
}

// Emit never blocks: a subscriber with a full buffer misses the event.
func (e *CheckoutEventEmitter) Emit(ev models.CheckoutEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	e.send(e.clients[AllEvents], ev)
	if ev.EventID != AllEvents {
		e.send(e.clients[ev.EventID], ev)
	}
}

func (e *CheckoutEventEmitter) send(clients []chan models.CheckoutEvent, ev models.CheckoutEvent) {
	for _, ch := range clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *CheckoutEventEmitter) remove(eventID int64, ch chan models.CheckoutEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[eventID]
	for i, c := range clients {
		if c == ch {
			e.clients[eventID] = append(clients[:i:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

// ClientCount returns how many subscribers listen on eventID.
func (e *CheckoutEventEmitter) ClientCount(eventID int64) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[eventID])
}
