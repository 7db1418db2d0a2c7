// Package procurement implements purchase orders and purchase requests.
package procurement

import "time"

// OrderStatus enumerates purchase order states.
type OrderStatus string

const (
	// OrderStatusPending marks orders not yet received.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCompleted marks orders whose goods were received into stock.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled marks orders called off with the supplier.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// RequestStatus enumerates purchase request states.
type RequestStatus string

const (
	// RequestStatusPending marks requests awaiting a decision.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved marks requests that spawned a purchase order.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected marks declined requests.
	RequestStatusRejected RequestStatus = "rejected"
)

// OrderItem is one purchase order line. ProductID may be empty for goods
// not yet in the catalog; receiving such a line auto-creates the product.
type OrderItem struct {
	ProductID   string  `json:"productId,omitempty"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// PurchaseOrder represents an order placed with a supplier.
type PurchaseOrder struct {
	ID           string      `json:"id"`
	OrderNumber  string      `json:"orderNumber"`
	SupplierID   string      `json:"supplierId,omitempty"`
	SupplierName string      `json:"supplierName,omitempty"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	RequestID    string      `json:"requestId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// RequestItem is one purchase request line, always for a known product.
type RequestItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason,omitempty"`
}

// PurchaseRequest represents an internal restock request raised by staff.
type PurchaseRequest struct {
	ID            string        `json:"id"`
	RequestNumber string        `json:"requestNumber"`
	Items         []RequestItem `json:"items"`
	Notes         string        `json:"notes,omitempty"`
	Status        RequestStatus `json:"status"`
	RequestedBy   string        `json:"requestedBy"`
	OrderID       string        `json:"orderId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
