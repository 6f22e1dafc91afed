// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"cngcrm-backend/config"
	"cngcrm-backend/models"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
	"cngcrm-backend/views"
)

// ReminderService walks the reminder queue once a day, dispatches every due
// tier over WhatsApp/SMS, flips the tier flag on the mapping and appends an
// activity log entry. Each tier fires at most once; a failed delivery is
// recorded but not retried.
type ReminderService struct {
	store    *store.UnifiedStore
	client   *twilio.RestClient
	settings config.Settings
	logger   zerolog.Logger
	cron     *cron.Cron
}

func NewReminderService(st *store.UnifiedStore, settings config.Settings, logger zerolog.Logger) *ReminderService {
	return &ReminderService{
		store:    st,
		settings: settings,
		logger:   logger,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: settings.TwilioAccountSID,
			Password: settings.TwilioAuthToken,
		}),
	}
}

// StartScheduler registers the daily sweep (09:00 by default) and starts
// the cron runner.
func (s *ReminderService) StartScheduler() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.settings.ReminderCron, func() {
		sent, failed := s.DispatchDue(context.Background())
		s.logger.Info().Int("sent", sent).Int("failed", failed).Msg("daily reminder sweep finished")
	}); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("schedule", s.settings.ReminderCron).Msg("reminder scheduler started")
	return nil
}

func (s *ReminderService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// DispatchDue sends every reminder whose tier is due today and returns the
// sent/failed counts.
func (s *ReminderService) DispatchDue(ctx context.Context) (sent, failed int) {
	for _, r := range s.store.Data().Reminders {
		if r.ReminderToSend == "" {
			continue
		}
		if err := s.Dispatch(ctx, r); err != nil {
			failed++
		} else {
			sent++
		}
	}
	return sent, failed
}

// Dispatch delivers one due reminder, marks its tier as sent and logs the
// outcome. The tier flag is flipped even when delivery fails so a tier
// never fires twice (at-most-once, matching the offline queue policy).
func (s *ReminderService) Dispatch(ctx context.Context, r views.ReminderView) error {
	message := s.composeMessage(r)
	deliveryErr := s.send(r, message)

	status := r.ReminderStatus
	switch r.ReminderToSend {
	case views.TierRem1:
		status.Rem1Sent = true
	case views.TierRem2:
		status.Rem2Sent = true
	case views.TierRem3:
		status.Rem3Sent = true
	default:
		return fmt.Errorf("unknown reminder tier %q", r.ReminderToSend)
	}
	patch := map[string]any{"reminder_status": status}
	if _, err := s.store.UpdateItem(ctx, models.CollectionMappings, r.ID, patch); err != nil {
		s.logger.Error().Err(err).Str("mapping", r.ID).Msg("reminder status update failed")
	}

	notes := message
	action := fmt.Sprintf("Reminder sent (%s)", r.ReminderToSend)
	if deliveryErr != nil {
		action = fmt.Sprintf("Reminder delivery failed (%s)", r.ReminderToSend)
		notes = deliveryErr.Error()
		s.logger.Error().Err(deliveryErr).Str("mapping", r.ID).Msg("reminder delivery failed")
	}
	entry := models.LogEntry{
		CustomerID: r.CustomerID,
		ProductID:  r.ProductID,
		Action:     action,
		Date:       utils.TodayISO(),
		Notes:      notes,
		LogType:    models.LogTypeReminder,
	}
	if _, err := s.store.AppendLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("mapping", r.ID).Msg("reminder log write failed")
	}
	return deliveryErr
}

// SendRenewalOffer dispatches a renewal offer for an expiring mapping and
// marks renewal_sent.
func (s *ReminderService) SendRenewalOffer(ctx context.Context, r views.ReminderView) error {
	message := fmt.Sprintf(
		"Hello %s, the warranty on your %s expires on %s. Contact us to renew and stay covered.",
		r.CustomerName, r.ProductName, utils.FormatDisplayDate(r.WarrantyExpiryDate),
	)
	deliveryErr := s.send(r, message)

	status := r.ReminderStatus
	status.RenewalSent = true
	patch := map[string]any{"reminder_status": status}
	if _, err := s.store.UpdateItem(ctx, models.CollectionMappings, r.ID, patch); err != nil {
		s.logger.Error().Err(err).Str("mapping", r.ID).Msg("renewal status update failed")
	}

	entry := models.LogEntry{
		CustomerID: r.CustomerID,
		ProductID:  r.ProductID,
		Action:     "Renewal offer sent",
		Date:       utils.TodayISO(),
		Notes:      message,
		LogType:    models.LogTypeReminder,
	}
	if _, err := s.store.AppendLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("mapping", r.ID).Msg("renewal log write failed")
	}
	return deliveryErr
}

func (s *ReminderService) composeMessage(r views.ReminderView) string {
	expiry := utils.FormatDisplayDate(r.WarrantyExpiryDate)
	switch r.ReminderToSend {
	case views.TierRem3:
		return fmt.Sprintf("Hello %s, the warranty on your %s expires tomorrow (%s). Please visit us to renew.",
			r.CustomerName, r.ProductName, expiry)
	case views.TierRem2:
		return fmt.Sprintf("Hello %s, the warranty on your %s expires in 15 days, on %s.",
			r.CustomerName, r.ProductName, expiry)
	default:
		return fmt.Sprintf("Hello %s, the warranty on your %s expires in 30 days, on %s.",
			r.CustomerName, r.ProductName, expiry)
	}
}

// send picks WhatsApp when the customer has a +-prefixed WhatsApp number,
// falling back to SMS on the mobile number.
func (s *ReminderService) send(r views.ReminderView, message string) error {
	to := r.MobileNumber
	from := s.settings.TwilioPhoneNumber
	if strings.HasPrefix(r.WhatsappNumber, "+") {
		to = "whatsapp:" + r.WhatsappNumber
		from = "whatsapp:" + s.settings.TwilioWhatsappNumber
	}
	if to == "" {
		return fmt.Errorf("customer %s has no phone number", r.CustomerID)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp.Sid != nil {
		s.logger.Info().Str("sid", *resp.Sid).Str("to", to).Msg("reminder delivered")
	}
	return nil
}
