package sales

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var invoiceNumberPattern = regexp.MustCompile(`^INV-(\d+)$`)

// NextInvoiceNumber derives the next sequential invoice number from the set
// of existing numbers. Numbers that do not match the INV-<digits> shape are
// ignored, so imported or hand-edited documents cannot break the sequence.
func NextInvoiceNumber(existing []string) string {
	max := 0
	for _, number := range existing {
		match := invoiceNumberPattern.FindStringSubmatch(number)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("INV-%04d", max+1)
}

// NewOrderNumber builds a timestamp based document number such as
// SO-1717171717171. Millisecond resolution keeps numbers unique for a
// single-tenant deployment.
func NewOrderNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
}
