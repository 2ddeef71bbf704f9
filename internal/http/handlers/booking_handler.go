package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/middleware"
	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/NishanKutu/ghumfir-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type BookingHandler struct {
	Bookings    service.BookingService
	FrontendURL string
}

func NewBookingHandler(bookings service.BookingService, frontendURL string) *BookingHandler {
	return &BookingHandler{Bookings: bookings, FrontendURL: frontendURL}
}

// Routes builds the /api/bookings surface. The gateway callback stays
// unauthenticated because the user's browser is redirected into it by
// eSewa; everything else requires a logged-in caller.
func (h *BookingHandler) Routes(requireAuth, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/verify-esewa", h.esewaCallback)

	r.Group(func(priv chi.Router) {
		priv.Use(requireAuth)
		priv.Post("/confirm", h.create)
		priv.Post("/initiate-esewa", h.initiatePayment)
		priv.Get("/my", h.listMine)
		priv.Get("/{id}", h.getByID)
		priv.Put("/{id}/cancel", h.cancel)
		priv.Delete("/{id}", h.delete)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(requireAuth, requireAdmin)
		admin.Get("/all", h.listAll)
	})

	return r
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	booking, err := h.Bookings.CreateBooking(r.Context(), claims.Sub, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) listMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	limit, offset := parsePagination(r)

	bookings, err := h.Bookings.ListMyBookings(r.Context(), claims.Sub, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BookingHandler) getByID(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	role, _ := domain.ParseRole(claims.Role)
	booking, err := h.Bookings.GetBooking(r.Context(), claims.Sub, role, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if booking == nil {
		response.NotFound(w, "booking not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)

	// The amount is kept as the raw JSON text so the signed bytes are
	// exactly what the client submits to the gateway form. productId is
	// the booking being paid for.
	var in struct {
		Amount    json.Number `json:"amount"`
		ProductID int64       `json:"productId"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil || in.Amount.String() == "" || in.ProductID <= 0 {
		response.BadRequest(w, "amount and productId are required")
		return
	}

	sig, err := h.Bookings.InitiatePayment(r.Context(), claims.Sub, in.ProductID, in.Amount.String())
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sig)
}

// esewaCallback handles the gateway redirect after payment. The user's
// browser lands here, so the reply is a redirect to the frontend rather
// than JSON.
func (h *BookingHandler) esewaCallback(w http.ResponseWriter, r *http.Request) {
	data := r.URL.Query().Get("data")

	result, err := h.Bookings.HandleCallback(r.Context(), data)
	if err != nil {
		http.Redirect(w, r, h.FrontendURL+"/payment-failure", http.StatusFound)
		return
	}
	if !result.Confirmed {
		http.Redirect(w, r, h.FrontendURL+"/payment-failure", http.StatusFound)
		return
	}
	http.Redirect(w, r, h.FrontendURL+"/payment-success", http.StatusFound)
}

func (h *BookingHandler) cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	role, _ := domain.ParseRole(claims.Role)
	booking, err := h.Bookings.CancelBooking(r.Context(), claims.Sub, role, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) listAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var status *domain.BookingStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s, ok := domain.ParseBookingStatus(v)
		if !ok {
			response.BadRequest(w, "invalid status filter")
			return
		}
		status = &s
	}

	bookings, err := h.Bookings.ListBookings(r.Context(), limit, offset, status)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *BookingHandler) delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid booking id")
		return
	}

	role, _ := domain.ParseRole(claims.Role)
	if err := h.Bookings.DeleteBooking(r.Context(), claims.Sub, role, id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
