package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/service"
	"github.com/rentora/rentora-backend/pkg/events"
)

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
	order    []int64 // insertion order, newest appended last

	// vanishOnUpdate drops the row before UpdateStatus sees it, simulating a
	// concurrent delete landing between the load and the update.
	vanishOnUpdate bool
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, userID int64, req *domain.CreateBookingRequest, rideDate *time.Time) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:              m.nextID,
		UserID:          userID,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		CarType:         req.CarType,
		Status:          domain.BookingPending,
		PriceCents:      req.PriceCents,
		RideDate:        rideDate,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	m.bookings[b.ID] = b
	m.order = append(m.order, b.ID)
	m.nextID++
	c := *b
	return &c, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	for i := len(m.order) - 1; i >= 0; i-- {
		b := m.bookings[m.order[i]]
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListAll(_ context.Context, status *domain.BookingStatus) ([]domain.Booking, error) {
	var out []domain.Booking
	for i := len(m.order) - 1; i >= 0; i-- {
		b := m.bookings[m.order[i]]
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	if m.vanishOnUpdate {
		delete(m.bookings, id)
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	c := *b
	return &c, nil
}

type mockCharger struct {
	enabled bool
	intents []int64 // booking IDs charged
}

func (m *mockCharger) CreateIntent(bookingID, amountCents int64) (string, error) {
	m.intents = append(m.intents, bookingID)
	return "pi_test", nil
}

func (m *mockCharger) Enabled() bool { return m.enabled }

func newBookingService() (service.BookingService, *mockBookingRepo, *mockCharger, *mockPublisher) {
	repo := newMockBookingRepo()
	charger := &mockCharger{enabled: true}
	bus := &mockPublisher{}
	return service.NewBookingService(repo, charger, bus), repo, charger, bus
}

func testUser(id int64, role string) *domain.User {
	return &domain.User{ID: id, Role: role, IsVerified: true}
}

func TestCreateBooking_Success(t *testing.T) {
	svc, _, _, bus := newBookingService()

	booking, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation:  "Airport",
		DropoffLocation: "Downtown",
		CarType:         "SUV",
		RideDate:        "2026-10-01T14:30:00Z",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if booking.Status != domain.BookingPending {
		t.Fatalf("new booking should be pending, got %s", booking.Status)
	}
	if booking.RideDate == nil || booking.RideDate.Day() != 1 {
		t.Fatalf("ride date not parsed: %v", booking.RideDate)
	}
	if len(bus.subjects) != 1 || bus.subjects[0] != events.BookingCreated {
		t.Fatalf("expected booking.created event, got %v", bus.subjects)
	}
}

func TestCreateBooking_MissingFields(t *testing.T) {
	svc, _, _, _ := newBookingService()

	_, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation:  "   ",
		DropoffLocation: "Downtown",
		CarType:         "SUV",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateBooking_BadRideDate(t *testing.T) {
	svc, _, _, _ := newBookingService()

	_, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation:  "Airport",
		DropoffLocation: "Downtown",
		CarType:         "SUV",
		RideDate:        "next tuesday",
	})
	if !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestListMine_NewestFirst(t *testing.T) {
	svc, _, _, _ := newBookingService()
	user := testUser(1, domain.RoleUser)

	for _, pickup := range []string{"first", "second", "third"} {
		if _, err := svc.Create(context.Background(), user, &domain.CreateBookingRequest{
			PickupLocation: pickup, DropoffLocation: "x", CarType: "sedan",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	// Another user's booking must not appear.
	if _, err := svc.Create(context.Background(), testUser(2, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation: "other", DropoffLocation: "x", CarType: "sedan",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bookings, err := svc.ListMine(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListMine failed: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(bookings))
	}
	if bookings[0].PickupLocation != "third" || bookings[2].PickupLocation != "first" {
		t.Fatalf("expected newest first, got %s..%s", bookings[0].PickupLocation, bookings[2].PickupLocation)
	}
}

func TestListAll_StatusFilter(t *testing.T) {
	svc, repo, _, _ := newBookingService()
	actor := testUser(9, domain.RoleModerator)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
			PickupLocation: "a", DropoffLocation: "b", CarType: "sedan",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := svc.SetStatus(context.Background(), actor, repo.order[0], "confirmed"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	confirmed, err := svc.ListAll(context.Background(), "confirmed")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(confirmed) != 1 {
		t.Fatalf("expected 1 confirmed booking, got %d", len(confirmed))
	}

	all, err := svc.ListAll(context.Background(), "")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(all))
	}

	if _, err := svc.ListAll(context.Background(), "bogus"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSetStatus_OpenTransitions(t *testing.T) {
	svc, repo, _, _ := newBookingService()
	actor := testUser(9, domain.RoleAdmin)

	booking, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation: "a", DropoffLocation: "b", CarType: "sedan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Any status may replace any other, including going backwards.
	for _, status := range []string{"cancelled", "confirmed", "pending", "completed"} {
		updated, err := svc.SetStatus(context.Background(), actor, booking.ID, status)
		if err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", status, err)
		}
		if string(updated.Status) != status {
			t.Fatalf("expected %s, got %s", status, updated.Status)
		}
	}
	if repo.bookings[booking.ID].Status != domain.BookingCompleted {
		t.Fatal("final status not persisted")
	}
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	svc, _, _, _ := newBookingService()

	_, err := svc.SetStatus(context.Background(), testUser(9, domain.RoleAdmin), 1, "in-progress")
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	svc, _, _, _ := newBookingService()

	_, err := svc.SetStatus(context.Background(), testUser(9, domain.RoleAdmin), 404, "confirmed")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetStatus_DeletedBetweenLoadAndUpdate(t *testing.T) {
	svc, repo, _, bus := newBookingService()

	booking, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation: "a", DropoffLocation: "b", CarType: "sedan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	published := len(bus.subjects)
	repo.vanishOnUpdate = true

	_, err = svc.SetStatus(context.Background(), testUser(9, domain.RoleAdmin), booking.ID, "confirmed")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(bus.subjects) != published {
		t.Fatal("no status event should be published for a vanished booking")
	}
}

func TestSetStatus_CompletedCreatesPaymentIntent(t *testing.T) {
	svc, _, charger, bus := newBookingService()
	actor := testUser(9, domain.RoleAdmin)

	booking, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation: "a", DropoffLocation: "b", CarType: "sedan", PriceCents: 12500,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), actor, booking.ID, "completed"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if len(charger.intents) != 1 || charger.intents[0] != booking.ID {
		t.Fatalf("expected one payment intent for booking %d, got %v", booking.ID, charger.intents)
	}

	// Completing again must not double-charge.
	if _, err := svc.SetStatus(context.Background(), actor, booking.ID, "completed"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if len(charger.intents) != 1 {
		t.Fatalf("expected no second intent, got %v", charger.intents)
	}

	found := false
	for _, s := range bus.subjects {
		if s == events.BookingStatusChanged {
			found = true
		}
	}
	if !found {
		t.Fatal("expected booking.status_changed event")
	}
}

func TestSetStatus_NoPriceNoIntent(t *testing.T) {
	svc, _, charger, _ := newBookingService()

	booking, err := svc.Create(context.Background(), testUser(1, domain.RoleUser), &domain.CreateBookingRequest{
		PickupLocation: "a", DropoffLocation: "b", CarType: "sedan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), testUser(9, domain.RoleAdmin), booking.ID, "completed"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if len(charger.intents) != 0 {
		t.Fatalf("expected no intent for a zero-price booking, got %v", charger.intents)
	}
}
