package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carhire/carhire/internal/handler/dto"
	"github.com/carhire/carhire/internal/service"
)

// AdminHandler serves inventory management and the rental overview.
type AdminHandler struct {
	*Responder
	inventory *service.InventoryService
	rentals   *service.RentalService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(responder *Responder, inventory *service.InventoryService, rentals *service.RentalService) *AdminHandler {
	return &AdminHandler{
		Responder: responder,
		inventory: inventory,
		rentals:   rentals,
	}
}

// Index sends admins to the inventory.
// GET /admin
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/cars", http.StatusSeeOther)
}

// Cars lists every car in the inventory.
// GET /admin/cars
func (h *AdminHandler) Cars(w http.ResponseWriter, r *http.Request) {
	h.renderCars(w, r, http.StatusOK, &Page{Title: "Manage cars"})
}

// AddCar adds a car. Invalid input re-renders the form.
// POST /admin/cars/add
func (h *AdminHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	form, err := dto.ParseAddCarForm(r)
	if err != nil {
		h.errorPage(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	car, err := h.inventory.AddCar(r.Context(), service.AddCarInput{
		Name:     form.Name,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderCars(w, r, http.StatusUnprocessableEntity, &Page{
				Title: "Manage cars",
				Error: userMessage(err),
				Form:  dto.FormValues{Name: form.Name, ImageURL: form.ImageURL},
			})
			return
		}
		h.handleServiceError(w, r, err, "/admin/cars")
		return
	}

	h.redirect(w, r, "/admin/cars", FlashSuccess, car.Name+" added to the inventory.")
}

// DeleteCar removes a car. A rented car is kept and reported with a flash.
// POST /admin/cars/{id}/delete
func (h *AdminHandler) DeleteCar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.inventory.DeleteCar(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err, "/admin/cars")
		return
	}

	h.redirect(w, r, "/admin/cars", FlashSuccess, "Car deleted.")
}

// Rentals lists every rental.
// GET /admin/rentals
func (h *AdminHandler) Rentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.rentals.ListAllRentals(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "/admin/cars")
		return
	}

	h.render(w, r, http.StatusOK, pageAdminRentals, &Page{
		Title:   "All rentals",
		Rentals: dto.ToRentalViews(rentals, h.now()),
	})
}

func (h *AdminHandler) renderCars(w http.ResponseWriter, r *http.Request, status int, page *Page) {
	cars, err := h.inventory.ListCars(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "/")
		return
	}
	page.Cars = dto.ToCarViews(cars)
	h.render(w, r, status, pageAdminCars, page)
}
