package export

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type invoiceRow struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	Customer      string     `json:"customer"`
	Items         []itemRow  `json:"items"`
	Total         float64    `json:"total"`
	Reference     *string    `json:"reference"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

type itemRow struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

func TestMarshalEmptySlice(t *testing.T) {
	out, err := Marshal([]invoiceRow{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMarshalRejectsNonSlice(t *testing.T) {
	_, err := Marshal(invoiceRow{})
	require.Error(t, err)
}

func TestMarshalQuotesCellsButNotHeader(t *testing.T) {
	out, err := Marshal([]invoiceRow{
		{InvoiceNumber: "INV-0001", Customer: "Smile Dental Clinic", Total: 243},
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "invoiceNumber,customer,items,total,reference", lines[0])
	require.Equal(t, `"INV-0001","Smile Dental Clinic","","243",""`, lines[1])
}

func TestMarshalEmbedsNestedValuesAsJSON(t *testing.T) {
	out, err := Marshal([]invoiceRow{
		{
			InvoiceNumber: "INV-0002",
			Customer:      "City Orthodontics",
			Items:         []itemRow{{Name: "Diamond Bur D12", Qty: 4}},
			Total:         14.4,
		},
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	// Quotes inside the embedded JSON are doubled.
	require.Contains(t, lines[1], `"[{""name"":""Diamond Bur D12"",""qty"":4}]"`)
}

func TestMarshalHeaderIsUnionInFirstSeenOrder(t *testing.T) {
	rows := []map[string]any{
		{"a": 1},
		{"b": 2},
	}
	// Map rows do not guarantee key order, so use two single-key rows: the
	// union must still contain both columns and fill the gaps with "".
	out, err := Marshal(rows)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	header := strings.Split(lines[0], ",")
	require.ElementsMatch(t, []string{"a", "b"}, header)
	require.Contains(t, lines[1], `""`)
	require.Contains(t, lines[2], `""`)
}

func TestMarshalQuotesInStringsAreEscaped(t *testing.T) {
	out, err := Marshal([]invoiceRow{
		{InvoiceNumber: "INV-0003", Customer: `Clinic "Bright"`, Total: 10},
	})
	require.NoError(t, err)
	require.Contains(t, out, `"Clinic ""Bright"""`)
}

func TestFilename(t *testing.T) {
	at := time.Date(2026, time.August, 28, 15, 4, 5, 0, time.UTC)
	require.Equal(t, "sales-export-2026-08-28.csv", Filename("sales", at))
}

func TestWriteHTTPSetsHeadersAndBOM(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, "sales", "a,b\n\"1\",\"2\"")

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, rec.Header().Get("Content-Disposition"), "sales-export-")
	require.True(t, strings.HasPrefix(rec.Body.String(), BOM))
}
