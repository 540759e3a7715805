package analytics

import (
	"context"
	"errors"
	"testing"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	events = []models.Event{
		{ID: 1, Name: "Jazz Night at the Blue Hall", PriceBase: price("10.00"), CategoryID: 1},
		{ID: 2, Name: "Rock Fest", PriceBase: price("25.50"), CategoryID: 2},
		{ID: 3, Name: "Poetry Slam", PriceBase: price("5.00"), CategoryID: 1},
	}
	reservations = []models.Reservation{
		{ID: 1, EventID: 1, SeatsReserved: 2},
		{ID: 2, EventID: 2, SeatsReserved: 4},
		{ID: 3, EventID: 1, SeatsReserved: 2},
		{ID: 4, EventID: 2, SeatsReserved: 0},
		{ID: 5, EventID: 99, SeatsReserved: 7},
	}
	users      = []models.User{{ID: 1}, {ID: 2}}
	categories = []models.Category{{ID: 1, Name: "Music"}, {ID: 2, Name: "Festivals"}, {ID: 3, Name: "Theatre"}}
)

func TestBuild_Totals(t *testing.T) {
	d := Build(events, reservations, users, categories)

	assert.Equal(t, 3, d.TotalEvents)
	assert.Equal(t, 5, d.TotalReservations)
	assert.Equal(t, 2, d.TotalUsers)
	// 10*2 + 25.5*4 + 10*2 + 25.5*1 (missing seats count as one) + 0 (unknown event)
	assert.Equal(t, "167.50", d.TotalRevenue)
}

func TestBuild_BestEventSkipsUnknownEvents(t *testing.T) {
	d := Build(events, reservations, users, categories)

	// event 99 has the most seats but is not in the catalog
	assert.Nil(t, d.BestEvent)

	d = Build(events, reservations[:4], users, categories)
	require.NotNil(t, d.BestEvent)
	assert.Equal(t, int64(1), d.BestEvent.ID)
}

func TestBuild_BestEventTieGoesToLowestID(t *testing.T) {
	d := Build(events, []models.Reservation{
		{EventID: 3, SeatsReserved: 3},
		{EventID: 2, SeatsReserved: 3},
		{EventID: 1, SeatsReserved: 1},
	}, nil, nil)

	require.NotNil(t, d.BestEvent)
	assert.Equal(t, int64(2), d.BestEvent.ID)
}

func TestBuild_Charts(t *testing.T) {
	d := Build(events, reservations, users, categories)

	require.Len(t, d.EventData, 3)
	assert.Equal(t, EventPoint{Name: "Jazz Night at t", Reservations: 2, Seats: 4}, d.EventData[0])
	assert.Equal(t, EventPoint{Name: "Rock Fest", Reservations: 2, Seats: 4}, d.EventData[1])
	assert.Equal(t, EventPoint{Name: "Poetry Slam", Reservations: 0, Seats: 0}, d.EventData[2])

	require.Len(t, d.RevenueData, 2)
	assert.Equal(t, "Rock Fest", d.RevenueData[0].Name)
	assert.Equal(t, "102", d.RevenueData[0].Revenue.String())
	assert.Equal(t, "40", d.RevenueData[1].Revenue.String())

	assert.Equal(t, []CategoryPoint{{Name: "Music", Value: 2}, {Name: "Festivals", Value: 2}}, d.CategoryData)
}

func TestBuild_TopReservations(t *testing.T) {
	many := []models.Reservation{
		{ID: 1, SeatsReserved: 1}, {ID: 2, SeatsReserved: 6}, {ID: 3, SeatsReserved: 3},
		{ID: 4, SeatsReserved: 6}, {ID: 5, SeatsReserved: 2}, {ID: 6, SeatsReserved: 5},
	}

	d := Build(nil, many, nil, nil)

	ids := []int64{}
	for _, r := range d.TopReservations {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{2, 4, 6, 3, 5}, ids)
	assert.Equal(t, int64(1), many[0].ID, "input order is left alone")
}

func TestBuild_ChartsAreCapped(t *testing.T) {
	var evs []models.Event
	var res []models.Reservation
	for i := int64(1); i <= 10; i++ {
		evs = append(evs, models.Event{ID: i, Name: "E", PriceBase: price("1")})
		res = append(res, models.Reservation{EventID: i, SeatsReserved: i})
	}

	d := Build(evs, res, nil, nil)

	assert.Len(t, d.EventData, 8)
	require.Len(t, d.RevenueData, 8)
	assert.Equal(t, "10", d.RevenueData[0].Revenue.String())
}

type fakeBackend struct {
	usersErr error
}

func (f *fakeBackend) ListEvents(ctx context.Context) ([]models.Event, error) { return events, nil }
func (f *fakeBackend) ListAllReservations(ctx context.Context) ([]models.Reservation, error) {
	return reservations[:4], nil
}
func (f *fakeBackend) ListUsers(ctx context.Context) ([]models.User, error) { return users, f.usersErr }
func (f *fakeBackend) ListCategories(ctx context.Context) ([]models.Category, error) {
	return categories, nil
}

type fakeJournal map[models.CheckoutState]int

func (j fakeJournal) CountByState(ctx context.Context) (map[models.CheckoutState]int, error) {
	return j, nil
}

func TestDashboard(t *testing.T) {
	journal := fakeJournal{models.CheckoutPaid: 3}
	d := NewService(&fakeBackend{}, journal, logger.NewNopLogger()).Dashboard(context.Background())

	assert.Equal(t, 4, d.TotalReservations)
	assert.Equal(t, 3, d.Checkouts[models.CheckoutPaid])
}

func TestDashboard_AnyFailureIsEmpty(t *testing.T) {
	d := NewService(&fakeBackend{usersErr: errors.New("down")}, nil, logger.NewNopLogger()).Dashboard(context.Background())

	assert.Equal(t, EmptyDashboard(), d)
	assert.Equal(t, "0.00", d.TotalRevenue)
}
