package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/rentora-backend/internal/domain"
)

// CreateBooking creates a ride request owned by the caller.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	booking, err := h.bookingService.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Booking created successfully", map[string]interface{}{
		"booking": booking,
	})
}

// MyBookings lists the caller's bookings, newest first.
func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListMine(r.Context(), currentUser(r).ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"bookings": bookings,
	})
}

// ListBookings lists every booking, staff only, optionally filtered by an
// exact status match.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"bookings": bookings,
	})
}

// UpdateBookingStatus overwrites a booking's status, staff only. Transitions
// are open: any of the four statuses may replace any other.
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseIDParam(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid booking id", "INVALID_INPUT")
		return
	}

	var req domain.UpdateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	booking, err := h.bookingService.SetStatus(r.Context(), currentUser(r), bookingID, req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Booking status updated", map[string]interface{}{
		"booking": booking,
	})
}
