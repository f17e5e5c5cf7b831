// internal/notify/models.go
package notify

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped" // channel on, but the user has no address for it
)

// Template is a subject/body pair with {{placeholder}} markers.
type Template struct {
	Subject string
	Body    string
	SMS     string
}

const defaultTemplate = "default"

func defaultTemplates() map[string]Template {
	return map[string]Template{
		"offer": {
			Subject: "Your offer has been submitted",
			Body:    "Hi {{name}}, your offer for property {{propertyId}} was received. Reference: {{receiptId}}. Status: {{status}}.",
			SMS:     "Offer {{receiptId}} received for property {{propertyId}}.",
		},
		"rental-application": {
			Subject: "Your rental application has been submitted",
			Body:    "Hi {{name}}, your rental application for property {{propertyId}} was received. Reference: {{receiptId}}. We will be in touch soon.",
			SMS:     "Rental application {{receiptId}} received.",
		},
		defaultTemplate: {
			Subject: "Submission received",
			Body:    "Hi {{name}}, your {{wizard}} submission was received. Reference: {{receiptId}}.",
			SMS:     "Submission {{receiptId}} received.",
		},
	}
}
