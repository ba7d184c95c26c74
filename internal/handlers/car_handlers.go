package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rentora/rentora-backend/internal/domain"
)

// ListCars is public; by default only active cars are returned, staff can
// pass active=false to see the whole fleet.
func (h *Handlers) ListCars(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"

	cars, err := h.carService.List(r.Context(), activeOnly)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"cars": cars,
	})
}

// GetCar is public, returns one car by id.
func (h *Handlers) GetCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := parseIDParam(r, "carID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid car id", "INVALID_INPUT")
		return
	}

	car, err := h.carService.Get(r.Context(), carID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"car": car,
	})
}

// CreateCar adds a car to the fleet, staff only.
func (h *Handlers) CreateCar(w http.ResponseWriter, r *http.Request) {
	var req domain.CarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	car, err := h.carService.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Car created successfully", map[string]interface{}{
		"car": car,
	})
}

// UpdateCar partially updates a car; absent fields are left untouched.
func (h *Handlers) UpdateCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := parseIDParam(r, "carID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid car id", "INVALID_INPUT")
		return
	}

	var req domain.CarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	car, err := h.carService.Update(r.Context(), carID, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Car updated successfully", map[string]interface{}{
		"car": car,
	})
}

// DeleteCar removes a car from the fleet, staff only.
func (h *Handlers) DeleteCar(w http.ResponseWriter, r *http.Request) {
	carID, ok := parseIDParam(r, "carID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid car id", "INVALID_INPUT")
		return
	}

	if err := h.carService.Delete(r.Context(), carID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Car deleted successfully", nil)
}
