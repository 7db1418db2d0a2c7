// Package sales implements invoicing and sales order management.
package sales

import "time"

// OrderStatus enumerates sales order lifecycle states.
type OrderStatus string

const (
	// OrderStatusPending marks orders awaiting conversion to an invoice.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusInvoiced marks orders that produced an invoice.
	OrderStatusInvoiced OrderStatus = "invoiced"
	// OrderStatusCancelled marks orders that were abandoned.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// SaleItem is a snapshot of one invoice or order line. Product name and
// price are frozen at the time the document is written so later catalog
// edits do not rewrite history.
type SaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// Sale represents a posted sales invoice.
type Sale struct {
	ID             string     `json:"id"`
	InvoiceNumber  string     `json:"invoiceNumber"`
	CustomerID     string     `json:"customerId"`
	CustomerName   string     `json:"customerName"`
	Items          []SaleItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	DiscountPct    float64    `json:"discountPct"`
	DiscountAmount float64    `json:"discountAmount"`
	Total          float64    `json:"total"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// SalesOrder represents a quotation-stage order that reserves nothing and
// moves no stock until it is converted into a Sale.
type SalesOrder struct {
	ID             string      `json:"id"`
	OrderNumber    string      `json:"orderNumber"`
	CustomerID     string      `json:"customerId"`
	CustomerName   string      `json:"customerName"`
	Items          []SaleItem  `json:"items"`
	Subtotal       float64     `json:"subtotal"`
	DiscountPct    float64     `json:"discountPct"`
	DiscountAmount float64     `json:"discountAmount"`
	Total          float64     `json:"total"`
	Status         OrderStatus `json:"status"`
	Notes          string      `json:"notes,omitempty"`
	SaleID         string      `json:"saleId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
