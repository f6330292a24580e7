// controllers/settings.go
package controllers

import (
	"errors"
	"net/http"

	"invoicepilot-backend/billing"
	"invoicepilot-backend/config"
	"invoicepilot-backend/models"
	"invoicepilot-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetSettings returns the user's settings, creating the default row on
// first access. A missing row is never an error.
func GetSettings(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var settings models.Settings
	err := config.DB.Where("user_id = ?", userUUID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{
			UserID:              userUUID,
			InvoicePrefix:       billing.DefaultInvoicePrefix,
			NextInvoiceNumber:   billing.DefaultNextInvoiceNumber,
			DefaultPaymentTerms: 30,
			TaxRate:             decimal.Zero,
			ThemeColor:          "#3b82f6",
			FooterNotes:         "Thank you for your business.",
		}
		if err := config.DB.Create(&settings).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create default settings")
			return
		}
	} else if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}

type UpdateSettingsInput struct {
	InvoicePrefix       *string          `json:"invoicePrefix"`
	NextInvoiceNumber   *int64           `json:"nextInvoiceNumber" binding:"omitempty,min=1"`
	DefaultPaymentTerms *int             `json:"defaultPaymentTerms" binding:"omitempty,min=0"`
	TaxRate             *decimal.Decimal `json:"taxRate"`
	ThemeColor          *string          `json:"themeColor"`
	FooterNotes         *string          `json:"footerNotes"`
}

// UpdateSettings edits invoicing preferences. The numbering counter may be
// raised by hand (e.g. to continue an existing series) but never lowered:
// moving it backwards would manufacture duplicate invoice numbers.
func UpdateSettings(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var settings models.Settings
	err := config.DB.Where("user_id = ?", userUUID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{
			UserID:            userUUID,
			InvoicePrefix:     billing.DefaultInvoicePrefix,
			NextInvoiceNumber: billing.DefaultNextInvoiceNumber,
		}
		if err := config.DB.Create(&settings).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create settings")
			return
		}
	} else if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	if input.NextInvoiceNumber != nil {
		if *input.NextInvoiceNumber < settings.NextInvoiceNumber {
			utils.RespondWithError(c, http.StatusBadRequest,
				"Next invoice number cannot be lowered below the current counter")
			return
		}
		settings.NextInvoiceNumber = *input.NextInvoiceNumber
	}
	if input.InvoicePrefix != nil {
		settings.InvoicePrefix = *input.InvoicePrefix
	}
	if input.DefaultPaymentTerms != nil {
		settings.DefaultPaymentTerms = *input.DefaultPaymentTerms
	}
	if input.TaxRate != nil {
		if input.TaxRate.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Tax rate cannot be negative")
			return
		}
		settings.TaxRate = *input.TaxRate
	}
	if input.ThemeColor != nil {
		settings.ThemeColor = *input.ThemeColor
	}
	if input.FooterNotes != nil {
		settings.FooterNotes = *input.FooterNotes
	}

	if err := config.DB.Save(&settings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	c.JSON(http.StatusOK, settings)
}
