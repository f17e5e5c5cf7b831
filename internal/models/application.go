// internal/models/application.go
package models

// SubmissionReceipt is the backend's answer to a completed wizard.
type SubmissionReceipt struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Wizard      string `json:"wizard"`
	PropertyID  string `json:"propertyId,omitempty"`
	SubmittedAt string `json:"submittedAt"` // ISO 8601
	Message     string `json:"message,omitempty"`
}
