package billing

import (
	"testing"
	"time"

	"invoicepilot-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusDraft, models.StatusSent))
	assert.True(t, CanTransition(models.StatusSent, models.StatusPaid))

	// Drafts cannot skip straight to paid
	assert.False(t, CanTransition(models.StatusDraft, models.StatusPaid))
	// No path out of paid
	assert.False(t, CanTransition(models.StatusPaid, models.StatusSent))
	assert.False(t, CanTransition(models.StatusPaid, models.StatusDraft))
	// No going back to draft
	assert.False(t, CanTransition(models.StatusSent, models.StatusDraft))
}

func TestEffectiveStatus(t *testing.T) {
	today := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		status string
		due    time.Time
		want   string
	}{
		{"sent past due is overdue", models.StatusSent, yesterday, StatusOverdue},
		{"sent due today stays sent", models.StatusSent, today, models.StatusSent},
		{"sent due tomorrow stays sent", models.StatusSent, tomorrow, models.StatusSent},
		{"draft past due stays draft", models.StatusDraft, yesterday, models.StatusDraft},
		{"paid past due stays paid", models.StatusPaid, yesterday, models.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.Invoice{Status: tt.status, DueDate: tt.due}
			assert.Equal(t, tt.want, EffectiveStatus(inv, today))
		})
	}
}

func TestEffectiveStatusIgnoresTimeOfDay(t *testing.T) {
	// Due late on the same calendar day is not overdue
	today := time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	inv := &models.Invoice{Status: models.StatusSent, DueDate: due}
	assert.Equal(t, models.StatusSent, EffectiveStatus(inv, today))
}

func TestEditable(t *testing.T) {
	assert.True(t, Editable(&models.Invoice{Status: models.StatusDraft}))
	assert.False(t, Editable(&models.Invoice{Status: models.StatusSent}))
	assert.False(t, Editable(&models.Invoice{Status: models.StatusPaid}))
}
