// internal/models/notification.go
package models

type Notification struct {
	Channel   string `json:"channel"` // "email", "sms"
	Recipient string `json:"recipient"`
	Status    string `json:"status"` // "sent", "failed", "disabled", "skipped"
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}
