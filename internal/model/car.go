package model

import "time"

// CarStatus is the availability state of a car.
type CarStatus string

const (
	CarStatusAvailable CarStatus = "available"
	CarStatusRented    CarStatus = "rented"
)

// DefaultCarImage is used when a car is added without an image.
const DefaultCarImage = "https://via.placeholder.com/300x180?text=Car+Image"

// IsValid checks if the status is a known car status.
func (s CarStatus) IsValid() bool {
	return s == CarStatusAvailable || s == CarStatusRented
}

// Car is an inventory item.
// Status is rented iff exactly one ongoing Rental references the car.
type Car struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    CarStatus  `json:"status"`
	Image     string     `json:"image"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsAvailable returns true if the car can be rented.
func (c *Car) IsAvailable() bool {
	return c.DeletedAt == nil && c.Status == CarStatusAvailable
}

// IsDeleted returns true if the car was removed from the inventory.
func (c *Car) IsDeleted() bool {
	return c.DeletedAt != nil
}
