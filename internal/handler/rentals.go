package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/handler/dto"
	"github.com/carhire/carhire/internal/service"
)

// RentalHandler serves the caller's rental history and returns.
type RentalHandler struct {
	*Responder
	rentals *service.RentalService
}

// NewRentalHandler creates a new RentalHandler.
func NewRentalHandler(responder *Responder, rentals *service.RentalService) *RentalHandler {
	return &RentalHandler{
		Responder: responder,
		rentals:   rentals,
	}
}

// List shows the caller's rentals, newest first.
// GET /rentals
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())

	rentals, err := h.rentals.ListUserRentals(r.Context(), sess.UserID)
	if err != nil {
		h.handleServiceError(w, r, err, "/cars")
		return
	}

	h.render(w, r, http.StatusOK, pageRentals, &Page{
		Title:   "My rentals",
		Rentals: dto.ToRentalViews(rentals, h.now()),
	})
}

// Return gives a rented car back.
// POST /rentals/{id}/return
func (h *RentalHandler) Return(w http.ResponseWriter, r *http.Request) {
	sess := auth.MustSessionFromContext(r.Context())
	rentalID := chi.URLParam(r, "id")

	rental, err := h.rentals.ReturnCar(r.Context(), sess.UserID, rentalID)
	if err != nil {
		h.handleServiceError(w, r, err, "/cars")
		return
	}

	msg := "Car returned. Thanks!"
	if rental.CarName != "" {
		msg = rental.CarName + " returned. Thanks!"
	}
	h.redirect(w, r, "/cars", FlashSuccess, msg)
}
