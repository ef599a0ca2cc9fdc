package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/handler/dto"
	"github.com/carhire/carhire/internal/service"
)

// CarHandler serves the user-facing car list and renting.
type CarHandler struct {
	*Responder
	inventory *service.InventoryService
	rentals   *service.RentalService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(responder *Responder, inventory *service.InventoryService, rentals *service.RentalService) *CarHandler {
	return &CarHandler{
		Responder: responder,
		inventory: inventory,
		rentals:   rentals,
	}
}

// List shows available cars and the caller's ongoing rentals.
// GET /cars
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())

	cars, err := h.inventory.ListAvailableCars(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "/")
		return
	}

	ongoing, err := h.rentals.ListOngoingUserRentals(r.Context(), sess.UserID)
	if err != nil {
		h.handleServiceError(w, r, err, "/")
		return
	}

	h.render(w, r, http.StatusOK, pageCars, &Page{
		Title:   "Cars",
		Cars:    dto.ToCarViews(cars),
		Ongoing: dto.ToRentalViews(ongoing, h.now()),
	})
}

// Rent rents a car to the caller. A car taken in the meantime is reported
// with a flash message.
// POST /cars/{id}/rent
func (h *CarHandler) Rent(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	carID := chi.URLParam(r, "id")

	if _, err := h.rentals.RentCar(r.Context(), sess.UserID, carID); err != nil {
		h.handleServiceError(w, r, err, "/cars")
		return
	}

	h.redirect(w, r, "/cars", FlashSuccess, "Car rented. Enjoy the ride!")
}
