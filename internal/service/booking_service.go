package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/payments"
	"github.com/rentora/rentora-backend/internal/repository"
	"github.com/rentora/rentora-backend/pkg/events"
	"github.com/rentora/rentora-backend/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, user *domain.User, req *domain.CreateBookingRequest) (*domain.Booking, error)
	ListMine(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListAll(ctx context.Context, statusFilter string) ([]domain.Booking, error)
	SetStatus(ctx context.Context, actor *domain.User, bookingID int64, newStatus string) (*domain.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	charger     payments.Charger
	eventBus    events.Publisher
}

func NewBookingService(bookingRepo repository.BookingRepository, charger payments.Charger, eventBus events.Publisher) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		charger:     charger,
		eventBus:    eventBus,
	}
}

func (s *bookingService) Create(ctx context.Context, user *domain.User, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rideDate, err := req.ParseRideDate()
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.Create(ctx, user.ID, req, rideDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:       booking.ID,
		UserID:          booking.UserID,
		PickupLocation:  booking.PickupLocation,
		DropoffLocation: booking.DropoffLocation,
		CarType:         booking.CarType,
		RideDate:        booking.RideDate,
		CreatedAt:       booking.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) ListAll(ctx context.Context, statusFilter string) ([]domain.Booking, error) {
	var status *domain.BookingStatus
	if statusFilter != "" {
		parsed, ok := domain.ParseBookingStatus(statusFilter)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		status = &parsed
	}

	bookings, err := s.bookingRepo.ListAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) SetStatus(ctx context.Context, actor *domain.User, bookingID int64, newStatus string) (*domain.Booking, error) {
	status, ok := domain.ParseBookingStatus(newStatus)
	if !ok {
		return nil, domain.ErrInvalidStatus
	}

	existing, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	booking, err := s.bookingRepo.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	// The booking can disappear between the load and the update, e.g. a
	// cascading user delete racing a status change.
	if booking == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.eventBus.Publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		OldStatus: string(existing.Status),
		NewStatus: string(booking.Status),
		ChangedBy: actor.ID,
		ChangedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking status event", "error", err, "booking_id", booking.ID)
	}

	// A booking moving into completed with a price attached gets a payment
	// intent so the ride can be charged. Intent creation is best-effort; the
	// status change has already committed.
	if status == domain.BookingCompleted && existing.Status != domain.BookingCompleted &&
		booking.PriceCents > 0 && s.charger.Enabled() {
		intentID, err := s.charger.CreateIntent(booking.ID, booking.PriceCents)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to create payment intent", "error", err, "booking_id", booking.ID)
		} else {
			logger.InfoContext(ctx, "Payment intent created", "booking_id", booking.ID, "intent_id", intentID)
		}
	}

	return booking, nil
}
