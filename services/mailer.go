// services/mailer.go
package services

import (
	"invoicepilot-backend/models"

	"github.com/rs/zerolog/log"
)

// InvoiceMailer delivers a finalized invoice to a recipient. Implementations
// read the already-computed totals and invoice number as trusted values and
// never recompute them. Rendering and transport live behind this interface.
type InvoiceMailer interface {
	SendInvoice(invoice *models.Invoice, sender *models.User, recipientEmail string) error
}

// LogMailer is the default delivery stub: it records the send instead of
// talking to a mail provider. Useful in dev and in tests.
type LogMailer struct{}

func (LogMailer) SendInvoice(invoice *models.Invoice, sender *models.User, recipientEmail string) error {
	log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("recipient", recipientEmail).
		Str("total", invoice.TotalAmount.StringFixed(2)).
		Msg("invoice email dispatched")
	return nil
}
