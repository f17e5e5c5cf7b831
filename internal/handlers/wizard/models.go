// internal/handlers/wizard/models.go
package wizard

import (
	"rental-portal/internal/audit"
	"rental-portal/internal/models"
)

// ClearField is the multipart field listing names to reset to empty.
const ClearField = "_clear"

type StartRequest struct {
	PropertyID string `json:"propertyId" form:"propertyId"`
}

type WizardSummary struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	Description    string   `json:"description,omitempty"`
	PropertyScoped bool     `json:"propertyScoped"`
	TotalSteps     int      `json:"totalSteps"`
	FileFields     []string `json:"fileFields"`
	ListFields     []string `json:"listFields,omitempty"`
}

type SubmitResponse struct {
	Receipt *models.SubmissionReceipt `json:"receipt"`
}

type HistoryResponse struct {
	Submissions []audit.Entry `json:"submissions"`
}
