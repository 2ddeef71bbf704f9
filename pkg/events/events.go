package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NishanKutu/ghumfir-api/pkg/logger"
	"github.com/nats-io/nats.go"
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

// NoopPublisher drops all events. Used when NATS is not configured
// and in tests.
type NoopPublisher struct{}

func NewNoop() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event dropped (noop bus)", "subject", subject)
	return nil
}

func (NoopPublisher) Close() error { return nil }

// Subjects
const (
	UserRegistered   = "user.registered"
	UserVerified     = "user.verified"
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	PaymentCaptured  = "payment.captured"
	PaymentFailed    = "payment.failed"
	ReviewCreated    = "review.created"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserVerifiedEvent struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type BookingCreatedEvent struct {
	BookingID     int64     `json:"booking_id"`
	UserID        int64     `json:"user_id"`
	DestinationID int64     `json:"destination_id"`
	TravelerCount int       `json:"traveler_count"`
	TotalPrice    float64   `json:"total_price"`
	PaymentMethod string    `json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

type BookingCancelledEvent struct {
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type PaymentCapturedEvent struct {
	BookingID       int64     `json:"booking_id"`
	TransactionCode string    `json:"transaction_code"`
	TotalAmount     string    `json:"total_amount"`
	CapturedAt      time.Time `json:"captured_at"`
}

type PaymentFailedEvent struct {
	TransactionUUID string    `json:"transaction_uuid"`
	Status          string    `json:"status"`
	FailedAt        time.Time `json:"failed_at"`
}

type ReviewCreatedEvent struct {
	ReviewID      int64     `json:"review_id"`
	DestinationID int64     `json:"destination_id"`
	UserID        int64     `json:"user_id"`
	Rating        int       `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
}
