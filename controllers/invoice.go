// controllers/invoice.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"invoicepilot-backend/billing"
	"invoicepilot-backend/config"
	"invoicepilot-backend/models"
	"invoicepilot-backend/services"
	"invoicepilot-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mailer delivers finalized invoices. Swappable in tests.
var Mailer services.InvoiceMailer = services.LogMailer{}

// InvoiceItemInput defines the structure for an invoice line item
type InvoiceItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateInvoiceInput defines the expected JSON structure for creating an invoice
type CreateInvoiceInput struct {
	ClientID       uuid.UUID          `json:"clientId" binding:"required"`
	IssueDate      *time.Time         `json:"issueDate"`
	DueDate        *time.Time         `json:"dueDate"`
	Items          []InvoiceItemInput `json:"items"`
	TaxAmount      decimal.Decimal    `json:"taxAmount"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	Notes          string             `json:"notes"`
}

// UpdateInvoiceInput defines the expected JSON structure for updating an invoice
type UpdateInvoiceInput struct {
	ClientID       *uuid.UUID          `json:"clientId"`
	IssueDate      *time.Time          `json:"issueDate"`
	DueDate        *time.Time          `json:"dueDate"`
	Items          *[]InvoiceItemInput `json:"items"`
	TaxAmount      *decimal.Decimal    `json:"taxAmount"`
	DiscountAmount *decimal.Decimal    `json:"discountAmount"`
	Notes          *string             `json:"notes"`
}

func buildItems(inputs []InvoiceItemInput) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, models.InvoiceItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      billing.ItemAmount(in.Quantity, in.UnitPrice),
		})
	}
	return items
}

// CreateInvoice allocates the next invoice number for the user, computes
// totals server-side from the submitted items, and persists the invoice and
// its items in one transaction with the counter advance.
func CreateInvoice(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate client exists and belongs to the user
	var client models.Client
	if err := config.DB.Where("user_id = ? AND id = ?", userUUID, input.ClientID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	items := buildItems(input.Items)
	if err := billing.ValidateItems(items); err != nil {
		respondValidation(c, err)
		return
	}
	if err := billing.ValidateAdjustments(input.TaxAmount, input.DiscountAmount); err != nil {
		respondValidation(c, err)
		return
	}

	// Totals are always computed here from the full item list; a
	// client-submitted total is never trusted.
	totals := billing.ComputeTotals(items, input.TaxAmount, input.DiscountAmount)

	issueDate := time.Now()
	if input.IssueDate != nil {
		issueDate = *input.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, client.DefaultPaymentTerms)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	invoice := models.Invoice{
		UserID:         userUUID,
		ClientID:       input.ClientID,
		Status:         models.StatusDraft,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: totals.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		Notes:          input.Notes,
		Items:          items,
	}

	// Number allocation and the invoice insert share one transaction: the
	// counter advance commits only if the invoice does, so a failed insert
	// never burns a number and a duplicate can never be issued.
	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	allocator := billing.NewAllocator(billing.NewGormSettingsStore(tx))
	number, err := allocator.Allocate(userUUID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, billing.ErrAllocationConflict) {
			utils.RespondWithError(c, http.StatusConflict, "Invoice numbering is busy, please try again")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to allocate invoice number")
		}
		return
	}
	invoice.InvoiceNumber = number

	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices retrieves the user's invoices, optionally filtered by client
// and status. "overdue" is accepted as a filter even though it is derived.
func GetInvoices(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Items").Preload("Client").
		Where("invoices.user_id = ?", userUUID).
		Order("issue_date DESC")

	if clientID := c.Query("clientId"); clientID != "" {
		clientUUID, err := uuid.Parse(clientID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		query = query.Where("client_id = ?", clientUUID)
	}

	today := time.Now()
	if status := c.Query("status"); status != "" {
		switch status {
		case models.StatusDraft, models.StatusSent, models.StatusPaid:
			query = query.Where("status = ?", status)
		case billing.StatusOverdue:
			query = query.Where("status = ? AND due_date < ?",
				models.StatusSent, utils.BeginningOfDay(today))
		default:
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
			return
		}
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	// Overdue is a display state; reflect it on the way out without
	// persisting anything.
	for i := range invoices {
		invoices[i].Status = billing.EffectiveStatus(&invoices[i], today)
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves a specific invoice with client and items
func GetInvoice(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Preload("Client").
		Where("user_id = ? AND id = ?", userUUID, invoiceUUID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	invoice.Status = billing.EffectiveStatus(&invoice, time.Now())

	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice edits an invoice. Items, tax, discount, issue date and
// client may only change while the invoice is a draft; the totals a sent
// invoice was delivered with stay stable. Item replacement is atomic: old
// items are removed and new ones inserted in the same transaction, and
// totals are recomputed from the new list.
func UpdateInvoice(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Preload("Items").
		Where("user_id = ? AND id = ?", userUUID, invoiceUUID).
		First(&invoice).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	monetaryEdit := input.Items != nil || input.TaxAmount != nil ||
		input.DiscountAmount != nil || input.ClientID != nil || input.IssueDate != nil
	if monetaryEdit && !billing.Editable(&invoice) {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusConflict, "Only draft invoices can be edited")
		return
	}

	if input.ClientID != nil {
		var client models.Client
		if err := tx.Where("user_id = ? AND id = ?", userUUID, *input.ClientID).
			First(&client).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		invoice.ClientID = *input.ClientID
	}

	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	items := invoice.Items
	if input.Items != nil {
		items = buildItems(*input.Items)
		if err := billing.ValidateItems(items); err != nil {
			tx.Rollback()
			respondValidation(c, err)
			return
		}

		// Replace the item set atomically: clear, then insert
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&models.InvoiceItem{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing items")
			return
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		invoice.Items = items
	}

	taxAmount := invoice.TaxAmount
	if input.TaxAmount != nil {
		taxAmount = *input.TaxAmount
	}
	discountAmount := invoice.DiscountAmount
	if input.DiscountAmount != nil {
		discountAmount = *input.DiscountAmount
	}
	if err := billing.ValidateAdjustments(taxAmount, discountAmount); err != nil {
		tx.Rollback()
		respondValidation(c, err)
		return
	}

	// Any mutation of items or adjustments recomputes from the full current
	// item list; totals are never patched incrementally.
	if input.Items != nil || input.TaxAmount != nil || input.DiscountAmount != nil {
		totals := billing.ComputeTotals(items, taxAmount, discountAmount)
		invoice.Subtotal = totals.Subtotal
		invoice.TaxAmount = totals.TaxAmount
		invoice.DiscountAmount = totals.DiscountAmount
		invoice.TotalAmount = totals.TotalAmount
	}

	if err := tx.Save(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice removes an invoice and its items. The invoice number is not
// returned to the pool; numbering gaps from deletions are permanent.
func DeleteInvoice(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Where("user_id = ? AND id = ?", userUUID, invoiceUUID).
		First(&invoice).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := tx.Where("invoice_id = ?", invoice.ID).
		Delete(&models.InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice items")
		return
	}

	if err := tx.Delete(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

type SendInvoiceInput struct {
	RecipientEmail string `json:"recipientEmail" binding:"omitempty,email"`
}

// SendInvoice emails the invoice to the client and promotes a draft to
// "sent". Sent invoices may be re-sent without a status change. An invoice
// with no items is incomplete and cannot be sent.
func SendInvoice(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var input SendInvoiceInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items").Preload("Client").
		Where("user_id = ? AND id = ?", userUUID, invoiceUUID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if invoice.Status == models.StatusPaid {
		utils.RespondWithError(c, http.StatusConflict, "Invoice is already paid")
		return
	}
	if len(invoice.Items) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invoice has no items and cannot be sent")
		return
	}

	recipient := input.RecipientEmail
	if recipient == "" {
		recipient = invoice.Client.Email
	}
	if recipient == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Client has no email address")
		return
	}

	var sender models.User
	if err := config.DB.First(&sender, "id = ?", userUUID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	if err := Mailer.SendInvoice(&invoice, &sender, recipient); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send invoice email")
		return
	}

	if invoice.Status == models.StatusDraft && billing.CanTransition(invoice.Status, models.StatusSent) {
		if err := config.DB.Model(&invoice).
			Update("status", models.StatusSent).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice status")
			return
		}
		invoice.Status = models.StatusSent
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice sent", "invoice": invoice})
}

// MarkInvoicePaid records payment. Only sent (including overdue) invoices
// can become paid; the transition is final.
func MarkInvoicePaid(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return
	}

	var invoice models.Invoice
	if err := config.DB.Where("user_id = ? AND id = ?", userUUID, invoiceUUID).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !billing.CanTransition(invoice.Status, models.StatusPaid) {
		utils.RespondWithError(c, http.StatusConflict, "Invoice cannot be marked paid from status "+invoice.Status)
		return
	}

	now := time.Now()
	if err := config.DB.Model(&invoice).Updates(map[string]interface{}{
		"status":    models.StatusPaid,
		"paid_date": &now,
	}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	invoice.Status = models.StatusPaid
	invoice.PaidDate = &now

	c.JSON(http.StatusOK, invoice)
}

type PreviewTotalsInput struct {
	Items          []InvoiceItemInput `json:"items"`
	TaxAmount      decimal.Decimal    `json:"taxAmount"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
}

// PreviewInvoiceTotals computes totals for the UI while the user edits line
// items. Pure computation, nothing is persisted, so it is safe to call on
// every keystroke.
func PreviewInvoiceTotals(c *gin.Context) {
	var input PreviewTotalsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	items := buildItems(input.Items)
	if err := billing.ValidateItems(items); err != nil {
		respondValidation(c, err)
		return
	}
	if err := billing.ValidateAdjustments(input.TaxAmount, input.DiscountAmount); err != nil {
		respondValidation(c, err)
		return
	}

	totals := billing.ComputeTotals(items, input.TaxAmount, input.DiscountAmount)

	c.JSON(http.StatusOK, gin.H{"items": items, "totals": totals})
}

func respondValidation(c *gin.Context, err error) {
	var fields billing.FieldErrors
	if errors.As(err, &fields) {
		utils.RespondWithFieldErrors(c, http.StatusBadRequest, fields)
		return
	}
	utils.RespondWithError(c, http.StatusBadRequest, err.Error())
}
