// Package catalog manages the dental supplies product master.
package catalog

import "time"

// Product represents an item sold or purchased by the distributor.
type Product struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	PurchasePrice float64    `json:"purchasePrice"`
	SellPrice     float64    `json:"sellPrice"`
	Stock         int        `json:"stock"`
	MinStock      int        `json:"minStock"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsLowStock reports whether current stock fell to or below the minimum.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// ExpiresBy reports whether the product carries an expiry date on or
// before the cutoff. Products without one never expire.
func (p Product) ExpiresBy(cutoff time.Time) bool {
	return p.ExpiryDate != nil && !p.ExpiryDate.After(cutoff)
}
