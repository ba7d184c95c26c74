package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// ParseBookingStatus is the single place the allowed status set lives.
// Transitions are deliberately open (any status to any status); a transition
// table would slot in here if the lifecycle is ever tightened.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type Booking struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	UserName        string        `json:"user_name,omitempty"`
	UserEmail       string        `json:"user_email,omitempty"`
	PickupLocation  string        `json:"pickup_location"`
	DropoffLocation string        `json:"dropoff_location"`
	CarType         string        `json:"car_type"`
	Status          BookingStatus `json:"status"`
	PriceCents      int64         `json:"price_cents"`
	RideDate        *time.Time    `json:"ride_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type CreateBookingRequest struct {
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	CarType         string `json:"car_type"`
	RideDate        string `json:"ride_date,omitempty"`
	PriceCents      int64  `json:"price_cents,omitempty"`
}

func (r *CreateBookingRequest) Normalize() {
	r.PickupLocation = strings.TrimSpace(r.PickupLocation)
	r.DropoffLocation = strings.TrimSpace(r.DropoffLocation)
	r.CarType = strings.TrimSpace(r.CarType)
}

func (r *CreateBookingRequest) Validate() error {
	if r.PickupLocation == "" || r.DropoffLocation == "" || r.CarType == "" {
		return fmt.Errorf("%w: pickup location, dropoff location, and car type are required", ErrValidation)
	}
	if r.PriceCents < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

// ParseRideDate accepts an ISO-8601 timestamp, tolerating a trailing Z the
// way the booking form sends it. Empty means no scheduled date.
func (r *CreateBookingRequest) ParseRideDate() (*time.Time, error) {
	raw := strings.TrimSpace(r.RideDate)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidDate
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status"`
}
