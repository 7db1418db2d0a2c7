// Package reports aggregates sales and purchasing figures for dashboards.
package reports

import (
	"time"

	"github.com/dentastock/dentastock/internal/sales"
)

// MonthlyBucket holds one calendar month's totals. Month is zero-based to
// match the dashboard's chart axis.
type MonthlyBucket struct {
	Month          int     `json:"month"`
	SalesTotal     float64 `json:"salesTotal"`
	PurchasesTotal float64 `json:"purchasesTotal"`
}

// MonthlySummary covers the current calendar year.
type MonthlySummary struct {
	Year   int             `json:"year"`
	Months []MonthlyBucket `json:"months"`
}

// ProductBreakdown is the quantity and revenue a product contributed in a
// date range.
type ProductBreakdown struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// CustomerBreakdown is the revenue a customer contributed in a date range.
type CustomerBreakdown struct {
	CustomerID   string  `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Revenue      float64 `json:"revenue"`
}

// RangeReport details activity inside an inclusive date window.
type RangeReport struct {
	From         time.Time           `json:"from"`
	To           time.Time           `json:"to"`
	InvoiceCount int                 `json:"invoiceCount"`
	TotalRevenue float64             `json:"totalRevenue"`
	Products     []ProductBreakdown  `json:"products"`
	Customers    []CustomerBreakdown `json:"customers"`
}

// SaleRecord is the slice of an invoice the report queries need.
type SaleRecord struct {
	CustomerID   string
	CustomerName string
	Items        []sales.SaleItem
	Total        float64
	CreatedAt    time.Time
}

// PurchaseRecord is the slice of a completed purchase order the report
// queries need.
type PurchaseRecord struct {
	Total     float64
	CreatedAt time.Time
}
