// internal/wizard/service.go
package wizard

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/common/metrics"
	"rental-portal/internal/models"
	"rental-portal/pkg/registry"
)

// Submitter delivers an assembled wizard to the backend.
type Submitter interface {
	SubmitForm(ctx context.Context, token, path, idempotencyKey string, payload *Payload) (*models.SubmissionReceipt, error)
}

// SubmissionRecord is the audit entry written after every submit attempt.
type SubmissionRecord struct {
	DraftID     string
	Wizard      string
	PropertyID  string
	Owner       string
	ReceiptID   string
	Outcome     string
	Error       string
	FileFields  []string
	SubmittedAt time.Time
}

type SubmissionRecorder interface {
	RecordSubmission(ctx context.Context, rec SubmissionRecord) error
}

type SubmissionNotifier interface {
	NotifySubmitted(ctx context.Context, who *models.Identity, receipt *models.SubmissionReceipt) []models.Notification
}

// Service runs the draft lifecycle: start, edit, navigate and submit.
type Service struct {
	registry     *registry.WizardRegistry
	store        DraftStore
	autofill     *AutoFiller
	submitter    Submitter
	recorder     SubmissionRecorder
	notifier     SubmissionNotifier
	maxFileBytes int64
	newID        func() string
	logger       logger.Logger
}

type ServiceOption func(*Service)

func WithRecorder(r SubmissionRecorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

func WithNotifier(n SubmissionNotifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithMaxFileBytes(n int64) ServiceOption {
	return func(s *Service) { s.maxFileBytes = n }
}

func WithIDGenerator(f func() string) ServiceOption {
	return func(s *Service) { s.newID = f }
}

func NewService(reg *registry.WizardRegistry, store DraftStore, autofill *AutoFiller, submitter Submitter, log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		registry:  reg,
		store:     store,
		autofill:  autofill,
		submitter: submitter,
		newID:     uuid.NewString,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Definitions lists the wizards the registry knows.
func (s *Service) Definitions() []registry.Wizard {
	return s.registry.Wizards
}

// Start creates a draft on step 1, applying any step-1 auto-fill.
func (s *Service) Start(ctx context.Context, who *models.Identity, wizardID, propertyID string) (*StepView, error) {
	if who == nil {
		return nil, errors.NewSessionInvalidError("no identity")
	}
	def, ok := s.registry.Wizard(wizardID)
	if !ok {
		return nil, errors.NewWizardNotFoundError(wizardID)
	}
	if def.PropertyScoped && propertyID == "" {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("wizard %q needs a propertyId", wizardID))
	}

	now := time.Now().UTC()
	draft := &Draft{
		ID:         s.newID(),
		WizardID:   def.ID,
		PropertyID: propertyID,
		Owner:      who.Email,
		Step:       1,
		State:      FormState{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c, err := NewController(def, draft)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	s.enterStep(ctx, c, who)

	if err := s.store.Save(ctx, draft); err != nil {
		return nil, err
	}
	metrics.WizardDraftsCreated.WithLabelValues(def.ID).Inc()
	s.logger.Info("Wizard draft created", map[string]interface{}{
		"draftId":    draft.ID,
		"wizard":     def.ID,
		"propertyId": propertyID,
		"owner":      who.Email,
	})
	return c.View(), nil
}

func (s *Service) View(ctx context.Context, who *models.Identity, draftID string) (*StepView, error) {
	c, err := s.load(ctx, who, draftID)
	if err != nil {
		return nil, err
	}
	return c.View(), nil
}

// Update merges partial values into the draft without moving steps.
func (s *Service) Update(ctx context.Context, who *models.Identity, draftID string, partial FormState) (*StepView, error) {
	c, err := s.load(ctx, who, draftID)
	if err != nil {
		return nil, err
	}
	if err := c.Update(partial, s.maxFileBytes); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c.Draft()); err != nil {
		return nil, err
	}
	return c.View(), nil
}

// Next merges partial values, then advances when every step so far is
// complete. A refused advance still keeps the merged values.
func (s *Service) Next(ctx context.Context, who *models.Identity, draftID string, partial FormState) (*StepView, error) {
	c, err := s.load(ctx, who, draftID)
	if err != nil {
		return nil, err
	}
	if len(partial) > 0 {
		if err := c.Update(partial, s.maxFileBytes); err != nil {
			return nil, err
		}
	}

	if err := c.Next(); err != nil {
		if errors.HasCode(err, errors.ErrCodeStepIncomplete) {
			metrics.WizardStepsBlocked.WithLabelValues(c.Definition().ID, strconv.Itoa(c.Draft().Step)).Inc()
		}
		if len(partial) > 0 {
			if saveErr := s.store.Save(ctx, c.Draft()); saveErr != nil {
				return nil, saveErr
			}
		}
		return nil, err
	}

	s.enterStep(ctx, c, who)
	if err := s.store.Save(ctx, c.Draft()); err != nil {
		return nil, err
	}
	return c.View(), nil
}

func (s *Service) Back(ctx context.Context, who *models.Identity, draftID string) (*StepView, error) {
	c, err := s.load(ctx, who, draftID)
	if err != nil {
		return nil, err
	}
	c.Back()
	if err := s.store.Save(ctx, c.Draft()); err != nil {
		return nil, err
	}
	return c.View(), nil
}

// Discard drops a draft the user abandoned.
func (s *Service) Discard(ctx context.Context, who *models.Identity, draftID string) error {
	if _, err := s.load(ctx, who, draftID); err != nil {
		return err
	}
	return s.store.Delete(ctx, draftID)
}

// Submit sends a complete draft to the backend once. Concurrent submits of
// the same draft are refused while the first one is in flight. The draft is
// removed only after the backend accepted it.
func (s *Service) Submit(ctx context.Context, who *models.Identity, draftID string) (*models.SubmissionReceipt, error) {
	c, err := s.load(ctx, who, draftID)
	if err != nil {
		return nil, err
	}
	def, draft := c.Definition(), c.Draft()

	if err := c.ReadyToSubmit(); err != nil {
		if errors.HasCode(err, errors.ErrCodeStepIncomplete) {
			metrics.WizardStepsBlocked.WithLabelValues(def.ID, strconv.Itoa(draft.Step)).Inc()
		}
		return nil, err
	}

	locked, err := s.store.AcquireSubmitLock(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, errors.NewSubmissionInProgressError(draft.ID)
	}
	defer func() {
		if err := s.store.ReleaseSubmitLock(context.WithoutCancel(ctx), draft.ID); err != nil {
			s.logger.Warn("Failed to release submit lock", map[string]interface{}{"draftId": draft.ID, "error": err})
		}
	}()

	state := draft.State.Clone()
	if draft.PropertyID != "" && !IsPresent(state["propertyId"]) {
		state["propertyId"] = draft.PropertyID
	}
	payload, err := Assemble(def, state)
	if err != nil {
		return nil, err
	}

	record := SubmissionRecord{
		DraftID:     draft.ID,
		Wizard:      def.ID,
		PropertyID:  draft.PropertyID,
		Owner:       draft.Owner,
		FileFields:  payload.FileFields,
		SubmittedAt: time.Now().UTC(),
	}

	receipt, err := s.submitter.SubmitForm(ctx, who.Token, def.SubmitPath, draft.ID, payload)
	if err != nil {
		metrics.WizardSubmissions.WithLabelValues(def.ID, "failed").Inc()
		record.Outcome = "failed"
		record.Error = errors.Normalize(err).Error()
		s.record(ctx, record)
		s.logger.Warn("Wizard submission failed", map[string]interface{}{
			"draftId": draft.ID,
			"wizard":  def.ID,
			"error":   err,
		})
		return nil, err
	}

	if receipt.Wizard == "" {
		receipt.Wizard = def.ID
	}
	if receipt.PropertyID == "" {
		receipt.PropertyID = draft.PropertyID
	}

	metrics.WizardSubmissions.WithLabelValues(def.ID, "accepted").Inc()
	record.Outcome = "accepted"
	record.ReceiptID = receipt.ID
	s.record(ctx, record)

	if err := s.store.Delete(ctx, draft.ID); err != nil {
		s.logger.Warn("Submitted draft could not be removed", map[string]interface{}{"draftId": draft.ID, "error": err})
	}
	if s.notifier != nil {
		s.notifier.NotifySubmitted(ctx, who, receipt)
	}

	s.logger.Info("Wizard submitted", map[string]interface{}{
		"draftId":   draft.ID,
		"wizard":    def.ID,
		"receiptId": receipt.ID,
		"files":     len(payload.FileFields),
	})
	return receipt, nil
}

func (s *Service) load(ctx context.Context, who *models.Identity, draftID string) (*Controller, error) {
	draft, err := s.store.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if who == nil || draft.Owner != who.Email {
		return nil, errors.NewDraftNotFoundError(draftID)
	}
	def, ok := s.registry.Wizard(draft.WizardID)
	if !ok {
		return nil, errors.NewWizardNotFoundError(draft.WizardID)
	}
	c, err := NewController(def, draft)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return c, nil
}

func (s *Service) enterStep(ctx context.Context, c *Controller, who *models.Identity) {
	if s.autofill == nil {
		return
	}
	filled := s.autofill.Apply(ctx, c.Definition(), c.Draft(), who.Token)
	if len(filled) == 0 {
		return
	}
	c.Draft().State = Merge(c.Draft().State, filled)
}

func (s *Service) record(ctx context.Context, rec SubmissionRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSubmission(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("Failed to record submission", map[string]interface{}{"draftId": rec.DraftID, "error": err})
	}
}
