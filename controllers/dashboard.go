// controllers/dashboard.go
package controllers

import (
	"net/http"
	"time"

	"invoicepilot-backend/billing"
	"invoicepilot-backend/config"
	"invoicepilot-backend/models"
	"invoicepilot-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	TotalClients      int64           `json:"totalClients"`
	TotalInvoices     int64           `json:"totalInvoices"`
	MonthlyRevenue    decimal.Decimal `json:"monthlyRevenue"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	OverdueCount      int64           `json:"overdueCount"`
	DraftCount        int64           `json:"draftCount"`
}

// GetDashboardOverview returns the headline numbers for the dashboard.
// Revenue counts paid invoices this month; outstanding is everything sent
// and not yet paid.
func GetDashboardOverview(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	today := utils.BeginningOfDay(now)

	var overview DashboardOverview

	config.DB.Model(&models.Client{}).
		Where("user_id = ? AND deleted_at IS NULL", userUUID).
		Count(&overview.TotalClients)

	config.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND deleted_at IS NULL", userUUID).
		Count(&overview.TotalInvoices)

	var monthlyRevenue decimal.NullDecimal
	config.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ? AND paid_date >= ? AND deleted_at IS NULL",
			userUUID, models.StatusPaid, firstOfMonth).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&monthlyRevenue)
	overview.MonthlyRevenue = monthlyRevenue.Decimal

	var outstanding decimal.NullDecimal
	config.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ? AND deleted_at IS NULL",
			userUUID, models.StatusSent).
		Select("COALESCE(SUM(total_amount), 0)").Scan(&outstanding)
	overview.OutstandingAmount = outstanding.Decimal

	config.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ? AND due_date < ? AND deleted_at IS NULL",
			userUUID, models.StatusSent, today).
		Count(&overview.OverdueCount)

	config.DB.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ? AND deleted_at IS NULL",
			userUUID, models.StatusDraft).
		Count(&overview.DraftCount)

	c.JSON(http.StatusOK, overview)
}

type AlertInvoice struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	DaysOverdue   int             `json:"days_overdue"`
	Client        struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
	} `json:"client"`
}

type DashboardAlerts struct {
	Overdue  []AlertInvoice `json:"overdue"`
	Draft    []AlertInvoice `json:"draft"`
	Upcoming []AlertInvoice `json:"upcoming"`
}

// GetDashboardAlerts buckets invoices needing attention: overdue, drafts
// waiting to be sent, and invoices due within the next two weeks.
func GetDashboardAlerts(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	now := time.Now()
	today := utils.BeginningOfDay(now)
	twoWeeks := today.AddDate(0, 0, 14)

	baseQuery := func() *gorm.DB {
		return config.DB.Preload("Client").
			Where("user_id = ? AND deleted_at IS NULL", userUUID)
	}

	var overdue, drafts, upcoming []models.Invoice

	if err := baseQuery().
		Where("status = ? AND due_date < ?", models.StatusSent, today).
		Order("due_date ASC").
		Find(&overdue).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch overdue invoices")
		return
	}

	if err := baseQuery().
		Where("status = ?", models.StatusDraft).
		Order("issue_date DESC").
		Limit(5).
		Find(&drafts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch draft invoices")
		return
	}

	if err := baseQuery().
		Where("status = ? AND due_date >= ? AND due_date <= ?",
			models.StatusSent, today, twoWeeks).
		Order("due_date ASC").
		Find(&upcoming).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch upcoming invoices")
		return
	}

	c.JSON(http.StatusOK, DashboardAlerts{
		Overdue:  formatAlerts(overdue, now),
		Draft:    formatAlerts(drafts, now),
		Upcoming: formatAlerts(upcoming, now),
	})
}

func formatAlerts(invoices []models.Invoice, now time.Time) []AlertInvoice {
	alerts := make([]AlertInvoice, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		alert := AlertInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			TotalAmount:   inv.TotalAmount,
			Status:        billing.EffectiveStatus(inv, now),
			DaysOverdue:   utils.DaysOverdue(inv.DueDate, now),
		}
		alert.Client.ID = inv.Client.ID
		alert.Client.Name = inv.Client.Name
		alert.Client.Email = inv.Client.Email
		alerts = append(alerts, alert)
	}
	return alerts
}
