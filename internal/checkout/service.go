package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/checkout/db"
	rediswrap "eventix-gateway/internal/checkout/redis"
	"eventix-gateway/internal/kafka"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/monitoring"
	"eventix-gateway/internal/reservation"
	"eventix-gateway/internal/utils"
)

type Backend interface {
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreatePayment(ctx context.Context, payment models.Payment) (*models.Payment, error)
	CancelReservation(ctx context.Context, id int64) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Broadcaster receives every transition for live viewers.
type Broadcaster interface {
	Emit(ev models.CheckoutEvent)
}

// SessionLookup resolves the session that owned an expired view.
type SessionLookup interface {
	Get(ctx context.Context, id string) (*auth.Session, error)
}

// Triggers recorded with every transition.
const (
	TriggerReserve = "reserve"
	TriggerPay     = "pay"
	TriggerBack    = "back"
	TriggerLeave   = "leave"
	TriggerExpired = "expired"
)

const (
	paymentRedirect        = "/my-tickets"
	paymentRedirectAfterMs = 2500
	paymentFailedMessage   = "Payment processing failed. Please try again."
	loadFailedMessage      = "Failed to load reservation details."
	serviceFee             = "0.00"
	cancelTimeout          = 10 * time.Second
)

// Summary is what the payment view renders.
type Summary struct {
	ReservationID  int64                        `json:"reservationId"`
	EventID        int64                        `json:"eventId"`
	EventName      string                       `json:"eventName"`
	Seats          int64                        `json:"seats"`
	PricePerTicket string                       `json:"pricePerTicket"`
	ServiceFee     string                       `json:"serviceFee"`
	Total          string                       `json:"total"`
	State          models.CheckoutState         `json:"state"`
	Methods        []models.PaymentMethodOption `json:"methods"`
	DefaultMethod  models.PaymentMethod         `json:"defaultMethod"`
	ViewTTLSeconds int                          `json:"viewTtlSeconds"`
}

type PayResult struct {
	Payment         *models.Payment `json:"payment"`
	Redirect        string          `json:"redirect"`
	RedirectAfterMs int             `json:"redirectAfterMs"`
}

// BackResult tells the view to step back in its history. Redirect is used
// when there is no history to go back to.
type BackResult struct {
	Cancelled   bool   `json:"cancelled"`
	HistoryBack bool   `json:"historyBack"`
	Redirect    string `json:"redirect"`
}

type Service struct {
	Backend  Backend
	Latch    *rediswrap.Latch
	Journal  *db.DB
	Sessions SessionLookup
	Events   Publisher
	Topics   kafka.CheckoutTopics
	Monitor  *monitoring.Monitor
	Feed     Broadcaster
	Logger   *logger.Logger
}

func NewService(b Backend, latch *rediswrap.Latch, journal *db.DB, sessions SessionLookup, events Publisher, topics kafka.CheckoutTopics, monitor *monitoring.Monitor, log *logger.Logger) *Service {
	if events == nil {
		events = kafka.NopProducer{}
	}
	return &Service{
		Backend:  b,
		Latch:    latch,
		Journal:  journal,
		Sessions: sessions,
		Events:   events,
		Topics:   topics,
		Monitor:  monitor,
		Logger:   log,
	}
}

// Begin moves a fresh reservation to PendingPayment and starts its view clock.
func (s *Service) Begin(ctx context.Context, sess *auth.Session, res *models.Reservation, event *models.Event) error {
	rec := &models.CheckoutRecord{
		ReservationID: res.ID,
		SessionID:     sess.ID,
		UserID:        sess.User.ID,
		EventID:       event.ID,
		Seats:         res.SeatsReserved,
		Amount:        reservation.TotalPrice(event.PriceBase, res.SeatsReserved),
		State:         models.CheckoutPendingPayment,
	}
	if err := s.Journal.SaveCheckout(ctx, rec); err != nil {
		return fmt.Errorf("journal checkout %d: %w", res.ID, err)
	}
	if err := s.Latch.MarkView(ctx, res.ID, sess.ID); err != nil {
		return err
	}

	s.Logger.LogCheckout("OPEN", res.ID, fmt.Sprintf("pending payment of %s for %d seats", rec.Amount, rec.Seats))
	s.transitioned(ctx, rec, TriggerReserve)
	return nil
}

// state reads the latch. Unclaimed means the payment is still pending.
func (s *Service) state(ctx context.Context, reservationID int64) (models.CheckoutState, error) {
	outcome, err := s.Latch.Outcome(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if outcome == "" {
		return models.CheckoutPendingPayment, nil
	}
	return models.CheckoutState(outcome), nil
}

// backendState maps a settled backend reservation onto a terminal state.
func backendState(status models.ReservationStatus) models.CheckoutState {
	switch status {
	case models.ReservationPaid:
		return models.CheckoutPaid
	case models.ReservationCancelled:
		return models.CheckoutCancelled
	}
	return ""
}

// settle reads the state of a loaded reservation. A reservation the backend
// already settled is terminal whatever the latch says, and the latch is
// claimed with that outcome when it was lost.
func (s *Service) settle(ctx context.Context, res *models.Reservation) (models.CheckoutState, error) {
	settled := backendState(res.Status)
	if settled == "" {
		return s.state(ctx, res.ID)
	}

	claimed, err := s.Latch.Claim(ctx, res.ID, string(settled))
	if err != nil {
		s.Logger.Warn("CHECKOUT", err.Error())
	}
	if claimed {
		s.Logger.LogCheckout("RESTORE", res.ID, fmt.Sprintf("backend reports %s, latch restored", res.Status))
		if err := s.Latch.DropView(ctx, res.ID); err != nil {
			s.Logger.Warn("CHECKOUT", err.Error())
		}
		if err := s.Journal.UpdateState(ctx, res.ID, settled, "", ""); err != nil {
			s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to journal %s of reservation %d: %v", settled, res.ID, err))
		}
	}
	return settled, nil
}

// authorize checks that sess may act on the reservation. The journal row
// decides when there is one, the backend reservation otherwise. The returned
// state is the terminal state already known for it, or "".
func (s *Service) authorize(ctx context.Context, sess *auth.Session, reservationID int64) (*models.CheckoutRecord, models.CheckoutState, error) {
	rec, err := s.Journal.GetCheckout(ctx, reservationID)
	if err != nil {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("Journal lookup for reservation %d failed: %v", reservationID, err))
		rec = nil
	}

	owner := int64(0)
	known := models.CheckoutState("")
	if rec != nil && rec.UserID != 0 {
		owner = rec.UserID
		if rec.State.Terminal() {
			known = rec.State
		}
	} else {
		res, err := s.Backend.GetReservation(ctx, reservationID)
		if err != nil {
			s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to load reservation %d: %v", reservationID, err))
			return nil, "", fmt.Errorf("reservation %d: %w", reservationID, err)
		}
		owner = res.UserID
		known = backendState(res.Status)
	}

	if owner != 0 && owner != sess.User.ID && !sess.User.IsAdmin() {
		s.Logger.LogSecurity("FOREIGN_RESERVATION", fmt.Sprintf("user %d acted on reservation %d of user %d", sess.User.ID, reservationID, owner))
		return nil, "", fmt.Errorf("reservation %d: %w", reservationID, utils.ErrNotFound)
	}
	return rec, known, nil
}

func (s *Service) load(ctx context.Context, sess *auth.Session, reservationID int64) (*models.Reservation, *models.Event, error) {
	res, err := s.Backend.GetReservation(ctx, reservationID)
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to load reservation %d: %v", reservationID, err))
		return nil, nil, fmt.Errorf("reservation %d: %w", reservationID, err)
	}
	if res.UserID != 0 && res.UserID != sess.User.ID && !sess.User.IsAdmin() {
		s.Logger.LogSecurity("FOREIGN_RESERVATION", fmt.Sprintf("user %d asked for reservation %d of user %d", sess.User.ID, res.ID, res.UserID))
		return nil, nil, fmt.Errorf("reservation %d: %w", reservationID, utils.ErrNotFound)
	}

	event, err := s.Backend.GetEvent(ctx, res.EventID)
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to load event %d of reservation %d: %v", res.EventID, reservationID, err))
		return nil, nil, fmt.Errorf("event %d: %w", res.EventID, err)
	}
	return res, event, nil
}

// Open loads the payment view. While the payment is pending the view is
// marked alive and journaled under the caller's session.
func (s *Service) Open(ctx context.Context, sess *auth.Session, reservationID int64) (*Summary, error) {
	res, event, err := s.load(ctx, sess, reservationID)
	if err != nil {
		return nil, err
	}

	state, err := s.settle(ctx, res)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ReservationID:  res.ID,
		EventID:        event.ID,
		EventName:      event.Name,
		Seats:          res.SeatsReserved,
		PricePerTicket: event.PriceBase.StringFixed(2),
		ServiceFee:     serviceFee,
		Total:          reservation.TotalPrice(event.PriceBase, res.SeatsReserved),
		State:          state,
		Methods:        models.PaymentMethods,
		DefaultMethod:  models.MethodCard,
		ViewTTLSeconds: int(s.Latch.ViewTTL.Seconds()),
	}
	if state.Terminal() {
		return summary, nil
	}

	if err := s.Journal.SaveCheckout(ctx, &models.CheckoutRecord{
		ReservationID: res.ID,
		SessionID:     sess.ID,
		UserID:        sess.User.ID,
		EventID:       event.ID,
		Seats:         res.SeatsReserved,
		Amount:        summary.Total,
		State:         models.CheckoutPendingPayment,
	}); err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to journal checkout %d: %v", res.ID, err))
	}
	if err := s.Latch.MarkView(ctx, res.ID, sess.ID); err != nil {
		return nil, err
	}
	return summary, nil
}

// Heartbeat keeps the view alive and reports the current state.
func (s *Service) Heartbeat(ctx context.Context, sess *auth.Session, reservationID int64) (models.CheckoutState, error) {
	if _, _, err := s.authorize(ctx, sess, reservationID); err != nil {
		return "", err
	}

	state, err := s.state(ctx, reservationID)
	if err != nil || state.Terminal() {
		return state, err
	}

	alive, err := s.Latch.RefreshView(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if !alive {
		// the view expired between two beats; teardown may already be running
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("Heartbeat for expired view of reservation %d", reservationID))
		return s.state(ctx, reservationID)
	}
	return state, nil
}

// Pay settles the reservation. One attempt at a time holds the payment lock,
// and the processed flag is claimed only after the backend accepted the payment.
func (s *Service) Pay(ctx context.Context, sess *auth.Session, reservationID int64, rawMethod string) (*PayResult, error) {
	method, ok := models.ParsePaymentMethod(rawMethod)
	if !ok {
		return nil, utils.NewValidationError(fmt.Sprintf("Unsupported payment method %q.", rawMethod))
	}

	res, event, err := s.load(ctx, sess, reservationID)
	if err != nil {
		return nil, err
	}

	locked, err := s.Latch.LockPayment(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("reservation %d has a payment in progress: %w", res.ID, utils.ErrConflict)
	}
	defer func() {
		if err := s.Latch.UnlockPayment(context.WithoutCancel(ctx), res.ID); err != nil {
			s.Logger.Warn("CHECKOUT", err.Error())
		}
	}()

	// checked under the lock so that an attempt which lost the race sees the paid latch
	state, err := s.settle(ctx, res)
	if err != nil {
		return nil, err
	}
	if state.Terminal() {
		return nil, fmt.Errorf("reservation %d is already %s: %w", reservationID, state, utils.ErrConflict)
	}

	amount := reservation.Total(event.PriceBase, res.SeatsReserved)
	payment, err := s.Backend.CreatePayment(ctx, models.Payment{
		ReservationID: res.ID,
		Amount:        amount,
		Method:        method,
		Status:        models.PaymentSuccess,
	})
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Payment for reservation %d failed: %v", res.ID, err))
		return nil, fmt.Errorf("payment: %w", err)
	}

	claimed, err := s.Latch.Claim(ctx, res.ID, string(models.CheckoutPaid))
	switch {
	case err != nil:
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Payment for reservation %d succeeded but the latch failed: %v", res.ID, err))
	case !claimed:
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("Payment for reservation %d succeeded after teardown already claimed it", res.ID))
	default:
		s.finish(ctx, &models.CheckoutRecord{
			ReservationID: res.ID,
			SessionID:     sess.ID,
			UserID:        sess.User.ID,
			EventID:       event.ID,
			Seats:         res.SeatsReserved,
			Amount:        amount.StringFixed(2),
			Method:        string(method),
			State:         models.CheckoutPaid,
		}, TriggerPay, "")
	}

	s.Logger.LogCheckout("PAY", res.ID, fmt.Sprintf("paid %s by %s", amount.StringFixed(2), method))
	return &PayResult{
		Payment:         payment,
		Redirect:        paymentRedirect,
		RedirectAfterMs: paymentRedirectAfterMs,
	}, nil
}

// Back is the explicit back button: claim, cancel, navigate back whatever
// the cancel outcome.
func (s *Service) Back(ctx context.Context, sess *auth.Session, reservationID int64) (*BackResult, error) {
	result := &BackResult{HistoryBack: true, Redirect: "/events"}

	rec, known, err := s.authorize(ctx, sess, reservationID)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.EventID != 0 {
		result.Redirect = "/event/" + strconv.FormatInt(rec.EventID, 10)
	}
	if known != "" {
		if _, err := s.Latch.Claim(ctx, reservationID, string(known)); err != nil {
			s.Logger.Warn("CHECKOUT", err.Error())
		}
		s.Logger.LogCheckout("BACK", reservationID, fmt.Sprintf("already %s, nothing to cancel", known))
		return result, nil
	}

	claimed, err := s.Latch.Claim(ctx, reservationID, string(models.CheckoutCancelled))
	if err != nil {
		// an explicit back always asks for the cancel
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Back on reservation %d without latch: %v", reservationID, err))
		claimed = true
	}
	if !claimed {
		s.Logger.LogCheckout("BACK", reservationID, "already processed, nothing to cancel")
		return result, nil
	}

	result.Cancelled = s.cancel(ctx, reservationID, rec, TriggerBack)
	return result, nil
}

// Leave is the view teardown sent by the unloading page. It outlives the
// request that carried it.
func (s *Service) Leave(ctx context.Context, reservationID int64) {
	s.teardown(context.WithoutCancel(ctx), reservationID, TriggerLeave)
}

// LeaveView is Leave on behalf of the session showing the view.
func (s *Service) LeaveView(ctx context.Context, sess *auth.Session, reservationID int64) error {
	_, known, err := s.authorize(ctx, sess, reservationID)
	if err != nil {
		return err
	}
	if known != "" {
		if _, err := s.Latch.Claim(ctx, reservationID, string(known)); err != nil {
			s.Logger.Warn("CHECKOUT", err.Error())
		}
		return nil
	}
	s.Leave(ctx, reservationID)
	return nil
}

// Expire is the teardown for a view whose heartbeat stopped. The cancel is
// issued with the backend cookies of the session that owned the view.
func (s *Service) Expire(ctx context.Context, reservationID int64) {
	rec, err := s.Journal.GetCheckout(ctx, reservationID)
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Journal lookup for expired view %d failed: %v", reservationID, err))
	}
	if rec != nil && rec.SessionID != "" && s.Sessions != nil {
		sess, err := s.Sessions.Get(ctx, rec.SessionID)
		switch {
		case err != nil:
			s.Logger.Error("CHECKOUT", fmt.Sprintf("Session lookup for expired view %d failed: %v", reservationID, err))
		case sess == nil:
			s.Logger.Warn("CHECKOUT", fmt.Sprintf("Session of expired view %d is gone, cancelling without it", reservationID))
		default:
			ctx = auth.WithSession(ctx, sess)
		}
	}
	s.teardown(ctx, reservationID, TriggerExpired)
}

// teardown issues at most one best-effort cancel, and only while nothing
// else processed the reservation.
func (s *Service) teardown(ctx context.Context, reservationID int64, trigger string) {
	rec, err := s.Journal.GetCheckout(ctx, reservationID)
	if err != nil {
		s.Logger.Warn("CHECKOUT", fmt.Sprintf("Journal lookup for reservation %d failed: %v", reservationID, err))
	}

	// a journaled outcome outlives the latch TTL
	outcome := models.CheckoutCancelled
	if rec != nil && rec.State.Terminal() {
		outcome = rec.State
	}
	claimed, err := s.Latch.Claim(ctx, reservationID, string(outcome))
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Teardown (%s) of reservation %d skipped: %v", trigger, reservationID, err))
		return
	}
	if !claimed || (rec != nil && rec.State.Terminal()) {
		s.Logger.Debug("CHECKOUT", fmt.Sprintf("Teardown (%s) of reservation %d: already processed", trigger, reservationID))
		return
	}

	s.Logger.LogCheckout("AUTO_CANCEL", reservationID, fmt.Sprintf("auto-cancelling unfinished reservation (%s)", trigger))
	s.cancel(ctx, reservationID, rec, trigger)
}

// cancel sends the one cancel the caller claimed. Failures are logged and
// journaled, never retried.
func (s *Service) cancel(ctx context.Context, reservationID int64, rec *models.CheckoutRecord, trigger string) bool {
	cctx, stop := context.WithTimeout(ctx, cancelTimeout)
	defer stop()

	cancelErr := ""
	if err := s.Backend.CancelReservation(cctx, reservationID); err != nil {
		cancelErr = err.Error()
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to cancel reservation %d (%s): %v", reservationID, trigger, err))
		s.Monitor.TrackCancelFailure(trigger)
	}

	if rec == nil {
		rec = &models.CheckoutRecord{ReservationID: reservationID}
	}
	rec.State = models.CheckoutCancelled
	s.finish(ctx, rec, trigger, cancelErr)
	return cancelErr == ""
}

// finish journals a terminal state, drops the view and announces it.
func (s *Service) finish(ctx context.Context, rec *models.CheckoutRecord, trigger, cancelErr string) {
	if err := s.Latch.DropView(ctx, rec.ReservationID); err != nil {
		s.Logger.Warn("CHECKOUT", err.Error())
	}

	existing, err := s.Journal.GetCheckout(ctx, rec.ReservationID)
	if err == nil && existing == nil {
		err = s.Journal.SaveCheckout(ctx, rec)
	}
	if err == nil {
		err = s.Journal.UpdateState(ctx, rec.ReservationID, rec.State, rec.Method, cancelErr)
	}
	if err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to journal %s of reservation %d: %v", rec.State, rec.ReservationID, err))
	}

	s.transitioned(ctx, rec, trigger)
}

func (s *Service) transitioned(ctx context.Context, rec *models.CheckoutRecord, trigger string) {
	s.Monitor.TrackCheckout(string(rec.State), trigger)

	topic := s.Topics.Opened
	switch rec.State {
	case models.CheckoutPaid:
		topic = s.Topics.Paid
	case models.CheckoutCancelled:
		topic = s.Topics.Cancelled
	}

	ev := models.CheckoutEvent{
		ReservationID: rec.ReservationID,
		UserID:        rec.UserID,
		EventID:       rec.EventID,
		Seats:         rec.Seats,
		Amount:        rec.Amount,
		Method:        rec.Method,
		State:         rec.State,
		Trigger:       trigger,
		OccurredAt:    time.Now().UTC(),
	}
	if s.Feed != nil {
		s.Feed.Emit(ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to marshal checkout event: %v", err))
		return
	}
	if err := s.Events.Publish(ctx, topic, strconv.FormatInt(rec.ReservationID, 10), payload); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for reservation %d: %v", topic, rec.ReservationID, err))
	}
}

// Recent lists journaled checkouts for the admin diagnostics view.
func (s *Service) Recent(ctx context.Context, state models.CheckoutState, limit int) ([]models.CheckoutRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Journal.ListCheckouts(ctx, state, limit)
}

var _ SessionLookup = (*auth.SessionStore)(nil)
var _ Backend = (*backend.Client)(nil)
