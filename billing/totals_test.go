package billing

import (
	"testing"

	"invoicepilot-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(desc, qty, price string) models.InvoiceItem {
	return models.InvoiceItem{
		Description: desc,
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
	}
}

func TestItemAmount(t *testing.T) {
	assert.True(t, dec("100.00").Equal(ItemAmount(dec("2"), dec("50.00"))))
	assert.True(t, dec("25.50").Equal(ItemAmount(dec("1"), dec("25.50"))))

	// 3 * 0.10 must be exactly 0.30, with no binary-float drift
	amount := ItemAmount(dec("3"), dec("0.10"))
	assert.Equal(t, "0.30", amount.StringFixed(2))
	assert.True(t, dec("0.30").Equal(amount))
}

func TestItemAmountRoundsHalfUp(t *testing.T) {
	// 3 * 0.335 = 1.005 -> 1.01
	assert.Equal(t, "1.01", ItemAmount(dec("3"), dec("0.335")).StringFixed(2))
	// 1.5 * 1.01 = 1.515 -> 1.52
	assert.Equal(t, "1.52", ItemAmount(dec("1.5"), dec("1.01")).StringFixed(2))
}

func TestComputeTotalsWorkedExample(t *testing.T) {
	items := []models.InvoiceItem{
		item("Design work", "2", "50.00"),
		item("Hosting", "1", "25.50"),
	}

	totals := ComputeTotals(items, dec("10.00"), dec("5.00"))

	assert.Equal(t, "125.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "5.00", totals.DiscountAmount.StringFixed(2))
	assert.Equal(t, "130.50", totals.TotalAmount.StringFixed(2))
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, decimal.Zero, decimal.Zero)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TotalAmount.IsZero())
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []models.InvoiceItem{
		item("Consulting", "3", "0.10"),
		item("Licenses", "7", "19.99"),
	}
	tax, discount := dec("1.23"), dec("0.45")

	first := ComputeTotals(items, tax, discount)
	second := ComputeTotals(items, tax, discount)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))

	// Inputs are untouched
	assert.True(t, items[0].Quantity.Equal(dec("3")))
	assert.True(t, items[0].Amount.IsZero())
}

func TestComputeTotalsNoDriftOverManyItems(t *testing.T) {
	// 1000 lines of 0.10 must sum to exactly 100.00
	items := make([]models.InvoiceItem, 1000)
	for i := range items {
		items[i] = item("Line", "1", "0.10")
	}

	totals := ComputeTotals(items, decimal.Zero, decimal.Zero)

	assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", totals.TotalAmount.StringFixed(2))
}

func TestComputeTotalsNegativeTotalAllowed(t *testing.T) {
	// A discount beyond subtotal+tax is a credit, not an error
	items := []models.InvoiceItem{item("Small job", "1", "10.00")}

	totals := ComputeTotals(items, dec("1.00"), dec("20.00"))

	assert.Equal(t, "-9.00", totals.TotalAmount.StringFixed(2))
}

func TestComputeTotalsLargeValues(t *testing.T) {
	items := []models.InvoiceItem{item("Bulk order", "1000000", "9999999.99")}

	totals := ComputeTotals(items, decimal.Zero, decimal.Zero)

	assert.Equal(t, "9999999990000.00", totals.Subtotal.StringFixed(2))
}

func TestValidateItems(t *testing.T) {
	valid := []models.InvoiceItem{item("Work", "1", "10.00")}
	assert.NoError(t, ValidateItems(valid))

	// Empty list is a valid (empty draft) invoice
	assert.NoError(t, ValidateItems(nil))

	bad := []models.InvoiceItem{
		item("  ", "0", "-1.00"),
		item("Fine", "2", "5.00"),
	}
	err := ValidateItems(bad)
	require.Error(t, err)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "items[0].description")
	assert.Contains(t, fields, "items[0].quantity")
	assert.Contains(t, fields, "items[0].unit_price")
	assert.NotContains(t, fields, "items[1].description")
}

func TestValidateAdjustments(t *testing.T) {
	assert.NoError(t, ValidateAdjustments(decimal.Zero, decimal.Zero))
	assert.NoError(t, ValidateAdjustments(dec("10.00"), dec("5.00")))

	err := ValidateAdjustments(dec("-1"), dec("-2"))
	require.Error(t, err)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "tax_amount")
	assert.Contains(t, fields, "discount_amount")
}
