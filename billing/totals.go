// billing/totals.go
//
// Pure computation of invoice monetary fields. All arithmetic uses
// decimal.Decimal so repeated sums of two-decimal amounts never drift the way
// binary floats do. Rounding is half away from zero to 2 places, applied to
// each line amount independently and again to the derived fields.
package billing

import (
	"fmt"
	"strings"

	"invoicepilot-backend/models"

	"github.com/shopspring/decimal"
)

// Totals are the derived monetary fields of an invoice. The invariant
// Total = Subtotal + TaxAmount - DiscountAmount holds after every
// computation. A discount larger than subtotal+tax yields a negative total,
// treated as a credit rather than clamped.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// ItemAmount computes a single line's amount: quantity * unit price, rounded
// to 2 decimal places.
func ItemAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// ComputeTotals derives subtotal and total from the full current item list
// plus the manually entered tax and discount amounts. It is idempotent and
// side-effect-free: the items slice is not modified, and identical inputs
// always produce identical outputs, so it is safe to call speculatively for
// live previews. Callers must always recompute from the complete item list
// on any mutation, never patch incrementally.
func ComputeTotals(items []models.InvoiceItem, taxAmount, discountAmount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(ItemAmount(item.Quantity, item.UnitPrice))
	}
	subtotal = subtotal.Round(2)
	tax := taxAmount.Round(2)
	discount := discountAmount.Round(2)

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Sub(discount).Round(2),
	}
}

// FieldErrors maps an input field path (e.g. "items[0].description") to a
// user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateItems enforces the preconditions every line item must meet before
// totals are accepted for persistence: non-empty description, positive
// quantity, non-negative unit price. An empty item list is valid (the
// invoice is an empty draft with zero totals). Returns nil or a FieldErrors
// covering every failing field, so nothing is partially saved.
func ValidateItems(items []models.InvoiceItem) error {
	errs := FieldErrors{}
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			errs[fmt.Sprintf("items[%d].description", i)] = "description is required"
		}
		if !item.Quantity.IsPositive() {
			errs[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be greater than zero"
		}
		if item.UnitPrice.IsNegative() {
			errs[fmt.Sprintf("items[%d].unit_price", i)] = "unit price cannot be negative"
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateAdjustments checks the manually entered tax and discount amounts.
func ValidateAdjustments(taxAmount, discountAmount decimal.Decimal) error {
	errs := FieldErrors{}
	if taxAmount.IsNegative() {
		errs["tax_amount"] = "tax amount cannot be negative"
	}
	if discountAmount.IsNegative() {
		errs["discount_amount"] = "discount amount cannot be negative"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
