// controllers/client.go
package controllers

import (
	"errors"
	"net/http"

	"invoicepilot-backend/config"
	"invoicepilot-backend/models"
	"invoicepilot-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientInput struct {
	Name                string `json:"name" binding:"required"`
	ContactPerson       string `json:"contactPerson"`
	Email               string `json:"email" binding:"omitempty,email"`
	Address             string `json:"address"`
	Phone               string `json:"phone"`
	DefaultPaymentTerms *int   `json:"defaultPaymentTerms" binding:"omitempty,min=0"`
	Notes               string `json:"notes"`
}

// CreateClient creates a new client for the authenticated user
func CreateClient(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	client := models.Client{
		UserID:        userUUID,
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Address:       input.Address,
		Phone:         input.Phone,
		Notes:         input.Notes,
	}
	if input.DefaultPaymentTerms != nil {
		client.DefaultPaymentTerms = *input.DefaultPaymentTerms
	} else {
		client.DefaultPaymentTerms = 30
	}

	if err := config.DB.Create(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients retrieves all clients for the authenticated user
func GetClients(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var clients []models.Client
	if err := config.DB.Where("user_id = ?", userUUID).
		Order("name ASC").
		Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a specific client with their invoices
func GetClient(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var client models.Client
	if err := config.DB.Preload("Invoices", func(db *gorm.DB) *gorm.DB {
		return db.Order("issue_date DESC")
	}).Where("user_id = ? AND id = ?", userUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, client)
}

// UpdateClient updates an existing client
func UpdateClient(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var input ClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	var client models.Client
	if err := config.DB.Where("user_id = ? AND id = ?", userUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	client.Name = input.Name
	client.ContactPerson = input.ContactPerson
	client.Email = input.Email
	client.Address = input.Address
	client.Phone = input.Phone
	client.Notes = input.Notes
	if input.DefaultPaymentTerms != nil {
		client.DefaultPaymentTerms = *input.DefaultPaymentTerms
	}

	if err := config.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client. Clients with invoices cannot be
// removed; the invoices keep their numbers forever.
func DeleteClient(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var client models.Client
	if err := config.DB.Where("user_id = ? AND id = ?", userUUID, clientUUID).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	var invoiceCount int64
	config.DB.Model(&models.Invoice{}).
		Where("client_id = ? AND deleted_at IS NULL", clientUUID).
		Count(&invoiceCount)
	if invoiceCount > 0 {
		utils.RespondWithError(c, http.StatusConflict, "Client has invoices and cannot be deleted")
		return
	}

	if err := config.DB.Delete(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

type FrequentClient struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	InvoiceCount int64     `json:"invoiceCount"`
}

// GetFrequentClients returns the user's most invoiced clients, for the
// quick-invoice dashboard widget.
func GetFrequentClients(c *gin.Context) {
	userUUID, ok := currentUserID(c)
	if !ok {
		return
	}

	var frequent []FrequentClient
	if err := config.DB.Raw(`
		SELECT c.id, c.name, c.email, COUNT(i.id) AS invoice_count
		FROM clients c
		JOIN invoices i ON i.client_id = c.id AND i.deleted_at IS NULL
		WHERE c.user_id = ? AND c.deleted_at IS NULL
		GROUP BY c.id, c.name, c.email
		ORDER BY invoice_count DESC, c.name ASC
		LIMIT 5`, userUUID).Scan(&frequent).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve frequent clients")
		return
	}

	c.JSON(http.StatusOK, frequent)
}
