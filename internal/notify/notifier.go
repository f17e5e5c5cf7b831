// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rental-portal/internal/common/config"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/models"
)

const sendTimeout = 10 * time.Second

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

// Notifier tells the submitting user that the backend accepted their wizard.
// Each channel reports its own status; a failed channel never fails the
// submission.
type Notifier struct {
	email        EmailSender
	sms          SMSSender
	emailEnabled bool
	smsEnabled   bool
	templates    map[string]Template
	logger       logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, email EmailSender, sms SMSSender, log logger.Logger) *Notifier {
	return &Notifier{
		email:        email,
		sms:          sms,
		emailEnabled: cfg.Email.Enabled && email != nil,
		smsEnabled:   cfg.SMS.Enabled && sms != nil,
		templates:    defaultTemplates(),
		logger:       log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

func (n *Notifier) NotifySubmitted(ctx context.Context, who *models.Identity, receipt *models.SubmissionReceipt) []models.Notification {
	if who == nil || receipt == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	tmpl, ok := n.templates[receipt.Wizard]
	if !ok {
		tmpl = n.templates[defaultTemplate]
	}
	data := map[string]interface{}{
		"name":       who.Name,
		"email":      who.Email,
		"wizard":     receipt.Wizard,
		"receiptId":  receipt.ID,
		"status":     receipt.Status,
		"propertyId": receipt.PropertyID,
	}

	out := []models.Notification{
		n.sendEmail(ctx, who.Email, renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data)),
		n.sendSMS(ctx, who.Phone, renderTemplate(tmpl.SMS, data)),
	}
	for _, note := range out {
		metrics.NotificationsSent.WithLabelValues(note.Channel, note.Status).Inc()
	}
	return out
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) models.Notification {
	note := models.Notification{Channel: ChannelEmail, Recipient: to}
	switch {
	case !n.emailEnabled:
		note.Status = StatusDisabled
	case to == "":
		note.Status = StatusSkipped
	default:
		id, err := n.email.Send(ctx, to, subject, body)
		if err != nil {
			n.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": to,
			})
			note.Status = StatusFailed
			note.Error = err.Error()
			break
		}
		note.Status = StatusSent
		note.MessageID = id
	}
	return note
}

func (n *Notifier) sendSMS(ctx context.Context, phone, message string) models.Notification {
	note := models.Notification{Channel: ChannelSMS, Recipient: phone}
	switch {
	case !n.smsEnabled:
		note.Status = StatusDisabled
	case phone == "":
		note.Status = StatusSkipped
	default:
		id, err := n.sms.Send(ctx, phone, message)
		if err != nil {
			n.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": phone,
			})
			note.Status = StatusFailed
			note.Error = err.Error()
			break
		}
		note.Status = StatusSent
		note.MessageID = id
	}
	return note
}

// renderTemplate substitutes {{key}} markers; markers without data are dropped.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
