package analytics

import (
	"context"
	"fmt"
	"sort"

	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	chartSize       = 8
	topReservations = 5
	chartNameLength = 15
)

type Backend interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListAllReservations(ctx context.Context) ([]models.Reservation, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Journal reports local checkout outcomes. Optional.
type Journal interface {
	CountByState(ctx context.Context) (map[models.CheckoutState]int, error)
}

type EventPoint struct {
	Name         string `json:"name"`
	Reservations int    `json:"reservations"`
	Seats        int64  `json:"seats"`
}

type RevenuePoint struct {
	Name    string          `json:"name"`
	Revenue decimal.Decimal `json:"revenue"`
}

type CategoryPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	TotalEvents       int                          `json:"totalEvents"`
	TotalReservations int                          `json:"totalReservations"`
	TotalUsers        int                          `json:"totalUsers"`
	TotalRevenue      string                       `json:"totalRevenue"`
	BestEvent         *models.Event                `json:"bestEvent"`
	TopReservations   []models.Reservation         `json:"topReservations"`
	EventData         []EventPoint                 `json:"eventData"`
	RevenueData       []RevenuePoint               `json:"revenueData"`
	CategoryData      []CategoryPoint              `json:"categoryData"`
	Checkouts         map[models.CheckoutState]int `json:"checkouts,omitempty"`
}

// EmptyDashboard is what the panel shows when its data cannot be loaded.
func EmptyDashboard() *Dashboard {
	return &Dashboard{
		TotalRevenue:    decimal.Zero.StringFixed(2),
		TopReservations: []models.Reservation{},
		EventData:       []EventPoint{},
		RevenueData:     []RevenuePoint{},
		CategoryData:    []CategoryPoint{},
	}
}

type Service struct {
	Backend Backend
	Journal Journal
	Logger  *logger.Logger
}

func NewService(b Backend, journal Journal, log *logger.Logger) *Service {
	return &Service{Backend: b, Journal: journal, Logger: log}
}

// Dashboard loads everything the overview needs in parallel. Any failed
// fetch yields the empty dashboard.
func (s *Service) Dashboard(ctx context.Context) *Dashboard {
	var (
		events       []models.Event
		reservations []models.Reservation
		users        []models.User
		categories   []models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.Backend.ListEvents(gctx)
		return wrap("events", err)
	})
	g.Go(func() (err error) {
		reservations, err = s.Backend.ListAllReservations(gctx)
		return wrap("reservations", err)
	})
	g.Go(func() (err error) {
		users, err = s.Backend.ListUsers(gctx)
		return wrap("users", err)
	})
	g.Go(func() (err error) {
		categories, err = s.Backend.ListCategories(gctx)
		return wrap("categories", err)
	})
	if err := g.Wait(); err != nil {
		s.Logger.Error("ANALYTICS", fmt.Sprintf("Error fetching analytics: %v", err))
		return EmptyDashboard()
	}

	d := Build(events, reservations, users, categories)

	if s.Journal != nil {
		counts, err := s.Journal.CountByState(ctx)
		if err != nil {
			s.Logger.Warn("ANALYTICS", fmt.Sprintf("Checkout journal unavailable: %v", err))
		} else {
			d.Checkouts = counts
		}
	}
	return d
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return nil
}

// Build aggregates the dashboard from already fetched data.
func Build(events []models.Event, reservations []models.Reservation, users []models.User, categories []models.Category) *Dashboard {
	d := EmptyDashboard()
	d.TotalEvents = len(events)
	d.TotalReservations = len(reservations)
	d.TotalUsers = len(users)

	byID := make(map[int64]models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	total := decimal.Zero
	for _, r := range reservations {
		seats := r.SeatsReserved
		if seats == 0 {
			seats = 1
		}
		if e, ok := byID[r.EventID]; ok {
			total = total.Add(e.PriceBase.Mul(decimal.NewFromInt(seats)))
		}
	}
	d.TotalRevenue = total.StringFixed(2)

	d.BestEvent = bestEvent(reservations, byID)
	d.EventData = eventChart(events, reservations)
	d.RevenueData = revenueChart(events, reservations)
	d.CategoryData = categoryChart(categories, reservations, byID)

	top := append([]models.Reservation(nil), reservations...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].SeatsReserved > top[j].SeatsReserved })
	if len(top) > topReservations {
		top = top[:topReservations]
	}
	d.TopReservations = append(d.TopReservations, top...)

	return d
}

// bestEvent picks the event with the most reserved seats. Ties go to the
// lowest event id.
func bestEvent(reservations []models.Reservation, byID map[int64]models.Event) *models.Event {
	seats := make(map[int64]int64)
	for _, r := range reservations {
		seats[r.EventID] += r.SeatsReserved
	}
	if len(seats) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(seats))
	for id := range seats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	best := ids[0]
	for _, id := range ids[1:] {
		if seats[id] > seats[best] {
			best = id
		}
	}
	if e, ok := byID[best]; ok {
		return &e
	}
	return nil
}

func chartName(name string) string {
	runes := []rune(name)
	if len(runes) > chartNameLength {
		return string(runes[:chartNameLength])
	}
	return name
}

func eventChart(events []models.Event, reservations []models.Reservation) []EventPoint {
	points := make([]EventPoint, 0, len(events))
	for _, e := range events {
		p := EventPoint{Name: chartName(e.Name)}
		for _, r := range reservations {
			if r.EventID == e.ID {
				p.Reservations++
				p.Seats += r.SeatsReserved
			}
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Reservations > points[j].Reservations })
	if len(points) > chartSize {
		points = points[:chartSize]
	}
	return points
}

func revenueChart(events []models.Event, reservations []models.Reservation) []RevenuePoint {
	points := []RevenuePoint{}
	for _, e := range events {
		revenue := decimal.Zero
		for _, r := range reservations {
			if r.EventID == e.ID {
				revenue = revenue.Add(e.PriceBase.Mul(decimal.NewFromInt(r.SeatsReserved)))
			}
		}
		revenue = revenue.Round(2)
		if revenue.IsPositive() {
			points = append(points, RevenuePoint{Name: chartName(e.Name), Revenue: revenue})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Revenue.GreaterThan(points[j].Revenue) })
	if len(points) > chartSize {
		points = points[:chartSize]
	}
	return points
}

func categoryChart(categories []models.Category, reservations []models.Reservation, byID map[int64]models.Event) []CategoryPoint {
	points := []CategoryPoint{}
	for _, c := range categories {
		count := 0
		for _, r := range reservations {
			if e, ok := byID[r.EventID]; ok && e.CategoryID == c.ID {
				count++
			}
		}
		if count > 0 {
			points = append(points, CategoryPoint{Name: c.Name, Value: count})
		}
	}
	return points
}
