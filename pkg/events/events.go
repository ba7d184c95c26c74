package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rentora/rentora-backend/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NoopPublisher discards events. Used when the broker is unreachable so the
// API can still serve requests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Event subjects
const (
	UserRegistered       = "user.registered"
	UserVerified         = "user.verified"
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserVerifiedEvent struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type BookingCreatedEvent struct {
	BookingID       int64      `json:"booking_id"`
	UserID          int64      `json:"user_id"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	CarType         string     `json:"car_type"`
	RideDate        *time.Time `json:"ride_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type BookingStatusChangedEvent struct {
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
