// services/reminder_service.go
package services

import (
	"fmt"
	"os"
	"time"

	"invoicepilot-backend/billing"
	"invoicepilot-backend/models"
	"invoicepilot-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// ReminderService sends payment reminders for invoices that have gone
// overdue: sent, unpaid, and past their due date.
type ReminderService struct {
	db     *gorm.DB
	client *twilio.RestClient
	from   string
}

func NewReminderService(db *gorm.DB) *ReminderService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: os.Getenv("TWILIO_PHONE_NUMBER"),
	}
}

func (s *ReminderService) StartScheduler() {
	c := cron.New()

	// Run every day at 9 AM
	c.AddFunc("0 9 * * *", func() {
		s.SendOverdueReminders()
	})

	c.Start()
	log.Info().Msg("payment reminder scheduler started")
}

// SendOverdueReminders texts every client with an overdue invoice. Reminders
// are best effort; a failed send is logged and skipped, never retried here.
func (s *ReminderService) SendOverdueReminders() {
	log.Info().Msg("starting overdue invoice reminder sweep")

	today := time.Now()

	var invoices []models.Invoice
	if err := s.db.Preload("Client").
		Where("status = ? AND due_date < ?", models.StatusSent, utils.BeginningOfDay(today)).
		Find(&invoices).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch overdue invoices")
		return
	}

	sent := 0
	for i := range invoices {
		inv := &invoices[i]
		if billing.EffectiveStatus(inv, today) != billing.StatusOverdue {
			continue
		}
		if inv.Client.Phone == "" || !utils.ValidatePhone(inv.Client.Phone) {
			continue
		}
		if err := s.sendReminderSMS(inv); err != nil {
			log.Error().Err(err).
				Str("invoice_number", inv.InvoiceNumber).
				Msg("failed to send payment reminder")
			continue
		}
		sent++
	}

	log.Info().Int("overdue", len(invoices)).Int("reminders_sent", sent).
		Msg("overdue reminder sweep finished")
}

func (s *ReminderService) sendReminderSMS(inv *models.Invoice) error {
	days := utils.DaysOverdue(inv.DueDate, time.Now())
	body := fmt.Sprintf(
		"Hi %s, invoice %s for %s was due %d day(s) ago. Please arrange payment at your earliest convenience.",
		inv.Client.Name, inv.InvoiceNumber, inv.TotalAmount.StringFixed(2), days)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(inv.Client.Phone)
	params.SetFrom(s.from)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	return err
}
