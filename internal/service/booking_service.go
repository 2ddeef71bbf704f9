package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/platform/payment"
	"github.com/NishanKutu/ghumfir-api/internal/repo/postgres"
	"github.com/NishanKutu/ghumfir-api/pkg/events"
	"github.com/NishanKutu/ghumfir-api/pkg/logger"
)

// CallbackResult tells the handler which redirect to issue after a
// gateway callback has been processed.
type CallbackResult struct {
	BookingID int64
	Confirmed bool
}

type BookingService interface {
	CreateBooking(ctx context.Context, userID int64, req *domain.CreateBookingRequest) (*domain.Booking, error)
	// InitiatePayment signs the payment form fields for a pending
	// booking owned by the caller. totalAmount is the exact string the
	// client will post to the gateway.
	InitiatePayment(ctx context.Context, userID, bookingID int64, totalAmount string) (*payment.Signature, error)
	// HandleCallback decodes the gateway redirect payload and confirms
	// the matching pending booking when the payment completed.
	HandleCallback(ctx context.Context, data string) (*CallbackResult, error)
	GetBooking(ctx context.Context, userID int64, role domain.Role, id int64) (*domain.Booking, error)
	ListMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error)
	ListBookings(ctx context.Context, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	CancelBooking(ctx context.Context, userID int64, role domain.Role, id int64) (*domain.Booking, error)
	// DeleteBooking removes a booking for its owner or an admin.
	DeleteBooking(ctx context.Context, userID int64, role domain.Role, id int64) error
}

type bookingService struct {
	bookingRepo     postgres.BookingRepo
	destinationRepo postgres.DestinationRepo
	signer          *payment.Signer
	eventBus        events.Publisher
}

func NewBookingService(
	bookingRepo postgres.BookingRepo,
	destinationRepo postgres.DestinationRepo,
	signer *payment.Signer,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo:     bookingRepo,
		destinationRepo: destinationRepo,
		signer:          signer,
		eventBus:        eventBus,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	destination, err := s.destinationRepo.GetByID(ctx, req.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination: %w", err)
	}
	if destination == nil {
		return nil, fmt.Errorf("destination not found")
	}
	if !destination.IsActive {
		return nil, fmt.Errorf("destination is not open for booking")
	}

	booking, err := s.bookingRepo.Create(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	event := events.BookingCreatedEvent{
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		DestinationID: booking.DestinationID,
		TravelerCount: booking.TravelerCount,
		TotalPrice:    booking.TotalPrice,
		PaymentMethod: booking.PaymentMethod,
		CreatedAt:     booking.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) InitiatePayment(ctx context.Context, userID, bookingID int64, totalAmount string) (*payment.Signature, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if !booking.IsOwner(userID) {
		return nil, fmt.Errorf("booking does not belong to you")
	}
	if booking.Status != domain.BookingPending {
		return nil, fmt.Errorf("booking is not awaiting payment")
	}

	// The booking id doubles as the gateway transaction_uuid, so the
	// callback can find the booking again without extra state.
	sig := s.signer.Sign(totalAmount, strconv.FormatInt(booking.ID, 10))
	return &sig, nil
}

func (s *bookingService) HandleCallback(ctx context.Context, data string) (*CallbackResult, error) {
	payload, err := payment.DecodeCallback(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode callback: %w", err)
	}

	bookingID, err := strconv.ParseInt(payload.TransactionUUID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("callback transaction_uuid is not a booking id: %w", err)
	}

	if !payload.IsComplete() {
		event := events.PaymentFailedEvent{
			TransactionUUID: payload.TransactionUUID,
			Status:          payload.Status,
			FailedAt:        time.Now(),
		}
		if err := s.eventBus.Publish(ctx, events.PaymentFailed, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish payment failed event", "error", err, "booking_id", bookingID)
		}
		return &CallbackResult{BookingID: bookingID, Confirmed: false}, nil
	}

	confirmed, err := s.bookingRepo.Confirm(ctx, bookingID, payload.TransactionCode)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	if !confirmed {
		// Unknown booking, or one that already left pending. A replayed
		// callback lands here and must not flip anything.
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking: %w", err)
		}
		if booking == nil {
			return nil, fmt.Errorf("booking not found for transaction %s", payload.TransactionUUID)
		}
		return &CallbackResult{BookingID: bookingID, Confirmed: booking.Status == domain.BookingConfirmed}, nil
	}

	event := events.PaymentCapturedEvent{
		BookingID:       bookingID,
		TransactionCode: payload.TransactionCode,
		TotalAmount:     payload.TotalAmount,
		CapturedAt:      time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.PaymentCaptured, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish payment captured event", "error", err, "booking_id", bookingID)
	}

	return &CallbackResult{BookingID: bookingID, Confirmed: true}, nil
}

func (s *bookingService) GetBooking(ctx context.Context, userID int64, role domain.Role, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, nil
	}
	if !booking.IsOwner(userID) && !role.Allows(domain.RoleAdmin) {
		return nil, fmt.Errorf("booking does not belong to you")
	}
	return booking, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) ListBookings(ctx context.Context, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.List(ctx, limit, offset, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, userID int64, role domain.Role, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking not found")
	}
	if !booking.IsOwner(userID) && !role.Allows(domain.RoleAdmin) {
		return nil, fmt.Errorf("booking does not belong to you")
	}
	if !booking.CanCancel() {
		return nil, fmt.Errorf("only pending bookings can be cancelled")
	}

	cancelled, err := s.bookingRepo.Cancel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !cancelled {
		return nil, fmt.Errorf("booking is no longer pending")
	}
	booking.Status = domain.BookingCancelled

	event := events.BookingCancelledEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		Reason:      "cancelled by " + string(role),
		CancelledAt: time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCancelled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking cancelled event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, userID int64, role domain.Role, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking not found")
	}
	if !booking.IsOwner(userID) && !role.Allows(domain.RoleAdmin) {
		return fmt.Errorf("booking does not belong to you")
	}

	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
