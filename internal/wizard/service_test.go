// internal/wizard/service_test.go
package wizard

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
)

// ==========================
// Test Doubles
// ==========================

type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int
	path     string
	token    string
	key      string
	payload  *Payload
	err      error
	receipt  *models.SubmissionReceipt
	block    chan struct{}
	released chan struct{}
}

func (f *fakeSubmitter) SubmitForm(_ context.Context, token, path, key string, payload *Payload) (*models.SubmissionReceipt, error) {
	f.mu.Lock()
	f.calls++
	f.token, f.path, f.key, f.payload = token, path, key, payload
	f.mu.Unlock()

	if f.block != nil {
		close(f.released)
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.receipt
	return &r, nil
}

type fakeRecorder struct {
	records []SubmissionRecord
}

func (f *fakeRecorder) RecordSubmission(_ context.Context, rec SubmissionRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	receipts []*models.SubmissionReceipt
}

func (f *fakeNotifier) NotifySubmitted(_ context.Context, _ *models.Identity, r *models.SubmissionReceipt) []models.Notification {
	f.receipts = append(f.receipts, r)
	return nil
}

type serviceFixture struct {
	svc       *Service
	store     *RedisDraftStore
	submitter *fakeSubmitter
	recorder  *fakeRecorder
	notifier  *fakeNotifier
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store, _ := newMiniredisStore(t)
	f := &serviceFixture{
		store:     store,
		submitter: &fakeSubmitter{receipt: &models.SubmissionReceipt{ID: "offer-77", Status: "received"}},
		recorder:  &fakeRecorder{},
		notifier:  &fakeNotifier{},
	}
	log := logger.NewTestLogger(t)
	filler := NewAutoFiller(&fakeProperties{property: &models.Property{ID: "p-1", Price: 300000}}, log)
	f.svc = NewService(testRegistry(), store, filler, f.submitter, log,
		WithRecorder(f.recorder),
		WithNotifier(f.notifier),
		WithMaxFileBytes(1024),
		WithIDGenerator(func() string { return "d-1" }),
	)
	return f
}

var jane = &models.Identity{Token: "tok-jane", Name: "Jane", Email: "jane@example.com", Role: models.RoleTenant}

// ==========================
// Lifecycle Tests
// ==========================

func TestService_FullLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, jane, "offer", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "d-1", view.DraftID)
	assert.Equal(t, 1, view.Step)
	assert.Equal(t, []string{"fullName", "verifiedId"}, view.Missing)

	_, err = f.svc.Next(ctx, jane, "d-1", FormState{"fullName": "Jane"})
	require.True(t, errors.HasCode(err, errors.ErrCodeStepIncomplete))

	view, err = f.svc.View(ctx, jane, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", view.Values["fullName"], "blocked next still keeps the typed values")

	view, err = f.svc.Next(ctx, jane, "d-1", FormState{"verifiedId": testFile("id.pdf")})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Step)
	assert.Equal(t, 300000.0, view.Values["offerAmount"], "auto-filled from the listing price")
	assert.Equal(t, 30000.0, view.Values["depositAmount"])
	assert.True(t, view.CanAdvance)

	view, err = f.svc.Back(ctx, jane, "d-1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Step)

	view, err = f.svc.Update(ctx, jane, "d-1", FormState{"phone": "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Step)

	_, err = f.svc.Next(ctx, jane, "d-1", nil)
	require.NoError(t, err)
	view, err = f.svc.Next(ctx, jane, "d-1", FormState{"offerAmount": 280000.0})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Step)
	assert.True(t, view.IsFinal)
	assert.False(t, view.CanSubmit)

	_, err = f.svc.Submit(ctx, jane, "d-1")
	require.True(t, errors.HasCode(err, errors.ErrCodeStepIncomplete))
	assert.Zero(t, f.submitter.calls)

	_, err = f.svc.Update(ctx, jane, "d-1", FormState{"agreeTerms": true})
	require.NoError(t, err)

	receipt, err := f.svc.Submit(ctx, jane, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "offer-77", receipt.ID)
	assert.Equal(t, "offer", receipt.Wizard)
	assert.Equal(t, "p-1", receipt.PropertyID)

	assert.Equal(t, 1, f.submitter.calls)
	assert.Equal(t, "/offers", f.submitter.path)
	assert.Equal(t, "tok-jane", f.submitter.token)
	assert.Equal(t, "d-1", f.submitter.key)
	assert.Equal(t, []string{"verifiedId"}, f.submitter.payload.FileFields)
	assert.Equal(t, "p-1", f.submitter.payload.BodyData["propertyId"])
	assert.Equal(t, 280000.0, f.submitter.payload.BodyData["offerAmount"])
	assert.Equal(t, "555-0100", f.submitter.payload.BodyData["phone"])

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, "accepted", f.recorder.records[0].Outcome)
	assert.Equal(t, "offer-77", f.recorder.records[0].ReceiptID)
	require.Len(t, f.notifier.receipts, 1)

	_, err = f.svc.View(ctx, jane, "d-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDraftNotFound), "draft removed after success")
}

func TestService_SubmitFailureKeepsDraft(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.submitter.err = errors.NewUpstreamRejectedError("submit", 422, "Offer below minimum")

	seedFinalDraft(t, f)

	_, err := f.svc.Submit(ctx, jane, "d-1")
	require.True(t, errors.HasCode(err, errors.ErrCodeUpstreamRejected))

	view, err := f.svc.View(ctx, jane, "d-1")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Step)

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, "failed", f.recorder.records[0].Outcome)
	assert.Empty(t, f.notifier.receipts)

	ok, err := f.store.AcquireSubmitLock(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, ok, "lock released after the attempt")
}

func TestService_ConcurrentSubmitRefused(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.submitter.block = make(chan struct{})
	f.submitter.released = make(chan struct{})

	seedFinalDraft(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, jane, "d-1")
		done <- err
	}()
	<-f.submitter.released

	_, err := f.svc.Submit(ctx, jane, "d-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSubmissionInProgress))

	close(f.submitter.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.submitter.calls)
}

func TestService_Errors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, jane, "lease-renewal", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeWizardNotFound))

	_, err = f.svc.Start(ctx, jane, "offer", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput), "offer needs a property")

	_, err = f.svc.Start(ctx, nil, "offer", "p-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionInvalid))

	_, err = f.svc.View(ctx, jane, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDraftNotFound))

	_, err = f.svc.Start(ctx, jane, "offer", "p-1")
	require.NoError(t, err)

	other := &models.Identity{Email: "sam@example.com", Role: models.RoleTenant}
	_, err = f.svc.View(ctx, other, "d-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDraftNotFound), "drafts are private to their owner")

	_, err = f.svc.Update(ctx, jane, "d-1", FormState{"verifiedId": &File{Name: "big.pdf", Size: 4096}})
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileTooLarge))

	require.NoError(t, f.svc.Discard(ctx, jane, "d-1"))
	_, err = f.svc.View(ctx, jane, "d-1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeDraftNotFound))
}

func seedFinalDraft(t *testing.T, f *serviceFixture) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), &Draft{
		ID:         "d-1",
		WizardID:   "offer",
		PropertyID: "p-1",
		Owner:      jane.Email,
		Step:       3,
		State: FormState{
			"fullName":      "Jane",
			"verifiedId":    testFile("id.pdf"),
			"offerAmount":   280000.0,
			"depositAmount": 28000.0,
			"agreeTerms":    true,
		},
	}))
}
