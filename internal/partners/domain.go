// Package partners manages customers and suppliers over a single directory.
package partners

import "time"

// Kind discriminates the two partner directories.
type Kind string

const (
	// KindCustomer marks partners that buy from us.
	KindCustomer Kind = "customer"
	// KindSupplier marks partners we purchase from.
	KindSupplier Kind = "supplier"
)

// Partner represents a customer or supplier record.
type Partner struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"-"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
