// billing/status.go
package billing

import (
	"time"

	"invoicepilot-backend/models"
	"invoicepilot-backend/utils"
)

// StatusOverdue is a display status only: a sent invoice past its due date.
// It is computed at read time and never persisted.
const StatusOverdue = "overdue"

// CanTransition reports whether a stored status change is allowed:
// draft -> sent and sent -> paid. There is no path out of paid, and a draft
// cannot be marked paid without being sent first.
func CanTransition(from, to string) bool {
	switch from {
	case models.StatusDraft:
		return to == models.StatusSent
	case models.StatusSent:
		return to == models.StatusPaid
	default:
		return false
	}
}

// EffectiveStatus returns the status to display for an invoice as of the
// given day. Only sent invoices become overdue; drafts and paid invoices
// keep their stored status regardless of the due date.
func EffectiveStatus(inv *models.Invoice, today time.Time) string {
	if inv.Status == models.StatusSent &&
		utils.BeginningOfDay(inv.DueDate).Before(utils.BeginningOfDay(today)) {
		return StatusOverdue
	}
	return inv.Status
}

// Editable reports whether the invoice's items and monetary fields may still
// change. Once sent, the invoice reflects what the client received and the
// edit flow rejects changes to its amounts.
func Editable(inv *models.Invoice) bool {
	return inv.Status == models.StatusDraft
}
