package tickets

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"
	"eventix-gateway/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListReservationsByUser(ctx context.Context, userID int64) ([]models.Reservation, error) {
	args := m.Called(ctx, userID)
	reservations, _ := args.Get(0).([]models.Reservation)
	return reservations, args.Error(1)
}

func (m *MockBackend) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Reservation)
	return res, args.Error(1)
}

func (m *MockBackend) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*models.Event)
	return event, args.Error(1)
}

func (m *MockBackend) ListTicketsByReservation(ctx context.Context, reservationID int64) ([]models.Ticket, error) {
	args := m.Called(ctx, reservationID)
	tickets, _ := args.Get(0).([]models.Ticket)
	return tickets, args.Error(1)
}

func (m *MockBackend) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	args := m.Called(ctx, code)
	ticket, _ := args.Get(0).(*models.Ticket)
	return ticket, args.Error(1)
}

var (
	ctx   = context.Background()
	alice = models.User{ID: 5, Name: "Alice"}
)

func TestListForUser_SkipsFailedReservations(t *testing.T) {
	b := new(MockBackend)
	b.On("ListReservationsByUser", ctx, int64(5)).Return([]models.Reservation{
		{ID: 1, UserID: 5, EventID: 10, SeatsReserved: 2},
		{ID: 2, UserID: 5, EventID: 10, SeatsReserved: 1},
		{ID: 3, UserID: 5, EventID: 20, SeatsReserved: 1},
	}, nil)
	b.On("GetEvent", ctx, int64(10)).Return(&models.Event{ID: 10, Name: "Jazz Night"}, nil).Once()
	b.On("GetEvent", ctx, int64(20)).Return(&models.Event{ID: 20, Name: "Rock Fest"}, nil).Once()
	b.On("ListTicketsByReservation", ctx, int64(1)).Return([]models.Ticket{{ID: 100, TicketCode: "A"}, {ID: 101, TicketCode: "B"}}, nil)
	b.On("ListTicketsByReservation", ctx, int64(2)).Return(nil, errors.New("boom"))
	b.On("ListTicketsByReservation", ctx, int64(3)).Return([]models.Ticket{{ID: 300, TicketCode: "C"}}, nil)

	entries := NewService(b, logger.NewNopLogger()).ListForUser(ctx, alice)

	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].TicketCode)
	assert.Equal(t, int64(1), entries[0].ReservationID)
	assert.Equal(t, int64(10), entries[0].EventID)
	assert.Equal(t, int64(2), entries[0].SeatsReserved)
	assert.Equal(t, "Jazz Night", entries[0].EventName)
	assert.Equal(t, "C", entries[2].TicketCode)
	assert.Equal(t, "Rock Fest", entries[2].EventName)
	b.AssertNumberOfCalls(t, "GetEvent", 2)
}

func TestListForUser_EventFailureKeepsTickets(t *testing.T) {
	b := new(MockBackend)
	b.On("ListReservationsByUser", ctx, int64(5)).Return([]models.Reservation{
		{ID: 1, EventID: 10, EventName: "From reservation"},
		{ID: 2, EventID: 10},
	}, nil)
	b.On("GetEvent", ctx, int64(10)).Return(nil, errors.New("down"))
	b.On("ListTicketsByReservation", ctx, int64(1)).Return([]models.Ticket{{ID: 1, TicketCode: "A"}}, nil)
	b.On("ListTicketsByReservation", ctx, int64(2)).Return([]models.Ticket{{ID: 2, TicketCode: "B"}}, nil)

	entries := NewService(b, logger.NewNopLogger()).ListForUser(ctx, alice)

	require.Len(t, entries, 2)
	assert.Equal(t, "From reservation", entries[0].EventName)
	assert.Nil(t, entries[0].Event)
	// failed lookups are retried per reservation
	b.AssertNumberOfCalls(t, "GetEvent", 2)
}

func TestListForUser_NoReservations(t *testing.T) {
	b := new(MockBackend)
	b.On("ListReservationsByUser", ctx, int64(5)).Return([]models.Reservation{}, nil)

	entries := NewService(b, logger.NewNopLogger()).ListForUser(ctx, alice)

	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	b.AssertNotCalled(t, "ListTicketsByReservation", mock.Anything, mock.Anything)
}

func TestListForUser_ReservationFetchFails(t *testing.T) {
	b := new(MockBackend)
	b.On("ListReservationsByUser", ctx, int64(5)).Return(nil, errors.New("timeout"))

	assert.Empty(t, NewService(b, logger.NewNopLogger()).ListForUser(ctx, alice))
}

func ticketBackend(owner int64) *MockBackend {
	b := new(MockBackend)
	b.On("GetTicketByCode", ctx, "EVX-1").Return(&models.Ticket{ID: 1, ReservationID: 7, TicketCode: "EVX-1", Status: models.TicketActive}, nil)
	b.On("GetReservation", ctx, int64(7)).Return(&models.Reservation{ID: 7, UserID: owner, EventID: 10, SeatsReserved: 3}, nil)
	b.On("GetEvent", ctx, int64(10)).Return(&models.Event{ID: 10, Name: "Jazz Night", Location: "Blue Hall"}, nil)
	return b
}

func TestByCode_Owner(t *testing.T) {
	entry, err := NewService(ticketBackend(5), logger.NewNopLogger()).ByCode(ctx, alice, "EVX-1")

	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", entry.EventName)
	assert.Equal(t, int64(3), entry.SeatsReserved)
}

func TestByCode_OtherUserIsNotFound(t *testing.T) {
	_, err := NewService(ticketBackend(9), logger.NewNopLogger()).ByCode(ctx, alice, "EVX-1")

	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestByCode_AdminSeesAnyTicket(t *testing.T) {
	admin := models.User{ID: 1, Role: models.RoleAdmin}

	entry, err := NewService(ticketBackend(9), logger.NewNopLogger()).ByCode(ctx, admin, "EVX-1")

	require.NoError(t, err)
	assert.Equal(t, "EVX-1", entry.TicketCode)
}

func TestQRAndPass(t *testing.T) {
	svc := NewService(ticketBackend(5), logger.NewNopLogger())

	png, err := svc.QR(ctx, alice, "EVX-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	pdf, err := svc.Pass(ctx, alice, "EVX-1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}
