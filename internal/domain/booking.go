package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	DestinationID int64         `json:"destination_id"`
	TravelerCount int           `json:"traveler_count"`
	TotalPrice    float64       `json:"total_price"`
	Status        BookingStatus `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	TransactionID *string       `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type CreateBookingRequest struct {
	DestinationID int64   `json:"destinationId"`
	TravelerCount int     `json:"travelerCount"`
	TotalPrice    float64 `json:"totalPrice"`
	PaymentMethod string  `json:"paymentMethod"`
}

func (r *CreateBookingRequest) Validate() error {
	if r.DestinationID <= 0 {
		return fmt.Errorf("destinationId is required")
	}
	if r.TravelerCount < 1 {
		return fmt.Errorf("travelerCount must be at least 1")
	}
	if r.TotalPrice < 0 {
		return fmt.Errorf("totalPrice must not be negative")
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = "esewa"
	}
	return nil
}

// CanCancel reports whether the booking is still in a cancellable state.
// Only pending bookings may be cancelled; confirmed and cancelled ones
// never transition again.
func (b *Booking) CanCancel() bool {
	return b.Status == BookingPending
}

func (b *Booking) IsOwner(userID int64) bool {
	return b.UserID == userID
}
