package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/platform/payment"
	"github.com/NishanKutu/ghumfir-api/internal/service"
	"github.com/NishanKutu/ghumfir-api/pkg/config"
	"github.com/NishanKutu/ghumfir-api/pkg/events"
)

const (
	testESewaSecret  = "8gBm/:&EnhH.1/q"
	testESewaProduct = "EPAYTEST"
)

func newBookingFixture() (service.BookingService, *mockBookingRepo, *mockDestinationRepo, *mockPublisher) {
	bookings := newMockBookingRepo()
	destinations := newMockDestinationRepo()
	bus := &mockPublisher{}
	signer := payment.NewSigner(config.ESewaConfig{
		SecretKey:   testESewaSecret,
		ProductCode: testESewaProduct,
	})
	svc := service.NewBookingService(bookings, destinations, signer, bus)
	return svc, bookings, destinations, bus
}

func addDestination(t *testing.T, destinations *mockDestinationRepo, active bool) *domain.Destination {
	t.Helper()
	d, err := destinations.Create(context.Background(), &domain.DestinationInput{
		Title:     "Annapurna Base Camp",
		Location:  "Kaski",
		Price:     1200,
		Duration:  7,
		GroupSize: 12,
		IsActive:  active,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// callbackData builds the Base64 payload the gateway sends on redirect.
func callbackData(t *testing.T, status, amount, transactionUUID string) string {
	t.Helper()
	payload := map[string]string{
		"transaction_code":   "000AWEO",
		"status":             status,
		"total_amount":       amount,
		"transaction_uuid":   transactionUUID,
		"product_code":       testESewaProduct,
		"signed_field_names": "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestCreateBooking(t *testing.T) {
	svc, _, destinations, bus := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, err := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if booking.Status != domain.BookingPending {
		t.Errorf("new bookings must start pending, got %q", booking.Status)
	}
	if booking.PaymentMethod != "esewa" {
		t.Errorf("default payment method should be esewa, got %q", booking.PaymentMethod)
	}
	if got := bus.subjects(); len(got) != 1 || got[0] != events.BookingCreated {
		t.Errorf("expected %q event, got %v", events.BookingCreated, got)
	}
}

func TestCreateBookingUnknownDestination(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	_, err := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: 99,
		TravelerCount: 2,
		TotalPrice:    2400,
	})
	if err == nil {
		t.Fatal("expected error for unknown destination")
	}
}

func TestCreateBookingInactiveDestination(t *testing.T) {
	svc, _, destinations, _ := newBookingFixture()
	dest := addDestination(t, destinations, false)

	_, err := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 1,
		TotalPrice:    1200,
	})
	if err == nil {
		t.Fatal("expected error for inactive destination")
	}
}

func TestInitiatePayment(t *testing.T) {
	svc, _, destinations, _ := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, err := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})
	if err != nil {
		t.Fatal(err)
	}

	sig, err := svc.InitiatePayment(context.Background(), 7, booking.ID, "2400")
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if sig.TransactionUUID != fmt.Sprintf("%d", booking.ID) {
		t.Errorf("transaction uuid should be the booking id, got %q", sig.TransactionUUID)
	}
	if sig.ProductCode != testESewaProduct {
		t.Errorf("unexpected product code %q", sig.ProductCode)
	}

	// Recompute the HMAC independently over the canonical message.
	msg := fmt.Sprintf("total_amount=2400,transaction_uuid=%d,product_code=%s", booking.ID, testESewaProduct)
	mac := hmac.New(sha256.New, []byte(testESewaSecret))
	mac.Write([]byte(msg))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if sig.Signature != want {
		t.Errorf("signature mismatch:\n got %s\nwant %s", sig.Signature, want)
	}

	// Not the owner.
	if _, err := svc.InitiatePayment(context.Background(), 8, booking.ID, "2400"); err == nil {
		t.Error("expected rejection for non-owner")
	}
	// Unknown booking.
	if _, err := svc.InitiatePayment(context.Background(), 7, 999, "2400"); err == nil {
		t.Error("expected rejection for unknown booking")
	}
}

func TestHandleCallbackComplete(t *testing.T) {
	svc, bookings, destinations, bus := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, err := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})
	if err != nil {
		t.Fatal(err)
	}

	data := callbackData(t, "COMPLETE", "2400.0", fmt.Sprintf("%d", booking.ID))
	result, err := svc.HandleCallback(context.Background(), data)
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if !result.Confirmed || result.BookingID != booking.ID {
		t.Errorf("unexpected result %+v", result)
	}

	stored := bookings.bookings[booking.ID]
	if stored.Status != domain.BookingConfirmed {
		t.Errorf("booking not confirmed, status %q", stored.Status)
	}
	if stored.TransactionID == nil || *stored.TransactionID != "000AWEO" {
		t.Errorf("transaction code not recorded: %v", stored.TransactionID)
	}

	subjects := bus.subjects()
	if subjects[len(subjects)-1] != events.PaymentCaptured {
		t.Errorf("expected %q event, got %v", events.PaymentCaptured, subjects)
	}
}

func TestHandleCallbackReplay(t *testing.T) {
	svc, bookings, destinations, _ := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, _ := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})

	data := callbackData(t, "COMPLETE", "2400.0", fmt.Sprintf("%d", booking.ID))
	if _, err := svc.HandleCallback(context.Background(), data); err != nil {
		t.Fatal(err)
	}
	first := *bookings.bookings[booking.ID].TransactionID

	// A replayed callback must not rewrite anything.
	result, err := svc.HandleCallback(context.Background(), data)
	if err != nil {
		t.Fatalf("replayed callback: %v", err)
	}
	if !result.Confirmed {
		t.Error("replay on a confirmed booking should still report confirmed")
	}
	if *bookings.bookings[booking.ID].TransactionID != first {
		t.Error("replay overwrote the transaction code")
	}
}

func TestHandleCallbackFailedStatus(t *testing.T) {
	svc, bookings, destinations, bus := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, _ := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})

	for _, status := range []string{"PENDING", "FAILED", "CANCELED", "complete"} {
		data := callbackData(t, status, "2400.0", fmt.Sprintf("%d", booking.ID))
		result, err := svc.HandleCallback(context.Background(), data)
		if err != nil {
			t.Fatalf("status %s: %v", status, err)
		}
		if result.Confirmed {
			t.Errorf("status %s must not confirm", status)
		}
		if bookings.bookings[booking.ID].Status != domain.BookingPending {
			t.Errorf("status %s flipped the booking", status)
		}
	}

	subjects := bus.subjects()
	if subjects[len(subjects)-1] != events.PaymentFailed {
		t.Errorf("expected %q events, got %v", events.PaymentFailed, subjects)
	}
}

func TestHandleCallbackGarbage(t *testing.T) {
	svc, _, _, _ := newBookingFixture()

	for _, data := range []string{"", "not base64!!!", base64.StdEncoding.EncodeToString([]byte("not json"))} {
		if _, err := svc.HandleCallback(context.Background(), data); err == nil {
			t.Errorf("data %q: expected error", data)
		}
	}

	// Valid envelope, but transaction_uuid is not a booking id.
	data := callbackData(t, "COMPLETE", "100.0", "not-a-number")
	if _, err := svc.HandleCallback(context.Background(), data); err == nil {
		t.Error("expected error for non-numeric transaction_uuid")
	}
}

func TestCancelBooking(t *testing.T) {
	svc, bookings, destinations, bus := newBookingFixture()
	dest := addDestination(t, destinations, true)

	booking, _ := svc.CreateBooking(context.Background(), 7, &domain.CreateBookingRequest{
		DestinationID: dest.ID,
		TravelerCount: 2,
		TotalPrice:    2400,
	})

	// Someone else's booking.
	if _, err := svc.CancelBooking(context.Background(), 8, domain.RoleUser, booking.ID); err == nil {
		t.Error("expected rejection for non-owner")
	}

	// Admin may cancel any pending booking.
	cancelled, err := svc.CancelBooking(context.Background(), 99, domain.RoleAdmin, booking.ID)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != domain.BookingCancelled {
		t.Errorf("status %q after cancel", cancelled.Status)
	}

	// Cancelled bookings stay cancelled.
	if _, err := svc.CancelBooking(context.Background(), 7, domain.RoleUser, booking.ID); err == nil {
		t.Error("expected rejection for a non-pending booking")
	}

	// A late COMPLETE callback must not resurrect it.
	data := callbackData(t, "COMPLETE", "2400.0", fmt.Sprintf("%d", booking.ID))
	result, err := svc.HandleCallback(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if result.Confirmed {
		t.Error("late callback confirmed a cancelled booking")
	}
	if bookings.bookings[booking.ID].Status != domain.BookingCancelled {
		t.Error("late callback changed a cancelled booking")
	}

	subjects := bus.subjects()
	if subjects[len(subjects)-1] != events.BookingCancelled {
		t.Errorf("expected %q event, got %v", events.BookingCancelled, subjects)
	}
}
