// internal/wizard/controller_test.go
package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/internal/common/errors"
)

func newTestController(t *testing.T, step int, state FormState) *Controller {
	t.Helper()
	c, err := NewController(testDefinition(), &Draft{ID: "d-1", WizardID: "offer", PropertyID: "p-1", Owner: "jane@example.com", Step: step, State: state})
	require.NoError(t, err)
	return c
}

func TestNewController_Rejects(t *testing.T) {
	def := testDefinition()

	_, err := NewController(def, &Draft{ID: "d", WizardID: "rental-application", Step: 1})
	assert.Error(t, err)

	_, err = NewController(def, &Draft{ID: "d", WizardID: "offer", Step: 0})
	assert.Error(t, err)

	_, err = NewController(def, &Draft{ID: "d", WizardID: "offer", Step: 4})
	assert.Error(t, err)

	c, err := NewController(def, &Draft{ID: "d", WizardID: "offer", Step: 1})
	require.NoError(t, err)
	assert.NotNil(t, c.Draft().State)
}

// ==========================
// Update
// ==========================

func TestController_Update(t *testing.T) {
	tests := []struct {
		name     string
		partial  FormState
		maxBytes int64
		wantCode errors.ErrorCode
	}{
		{name: "text fields", partial: FormState{"fullName": "Jane", "nickname": "J"}},
		{name: "file into file field", partial: FormState{"verifiedId": testFile("id.pdf")}},
		{name: "clear file field", partial: FormState{"verifiedId": nil}},
		{name: "text into file field", partial: FormState{"verifiedId": "id.pdf"}, wantCode: errors.ErrCodeInvalidFileField},
		{name: "file into text field", partial: FormState{"fullName": testFile("x.pdf")}, wantCode: errors.ErrCodeInvalidInput},
		{name: "file over limit", partial: FormState{"proofOfFunds": testFile("bank.pdf")}, maxBytes: 3, wantCode: errors.ErrCodeFileTooLarge},
		{name: "file at limit", partial: FormState{"proofOfFunds": testFile("bank.pdf")}, maxBytes: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, 1, FormState{"phone": "555"})
			err := c.Update(tt.partial, tt.maxBytes)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.wantCode))
				assert.Equal(t, FormState{"phone": "555"}, c.Draft().State, "state untouched on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "555", c.Draft().State["phone"])
			for k, v := range tt.partial {
				assert.Equal(t, v, c.Draft().State[k])
			}
		})
	}
}

func TestController_Update_ListFieldsStayLists(t *testing.T) {
	c := newTestController(t, 1, FormState{})
	partial := FormState{"contingencies": "inspection", "fullName": "Jane"}

	require.NoError(t, c.Update(partial, 0))
	assert.Equal(t, []string{"inspection"}, c.Draft().State["contingencies"])
	assert.Equal(t, "Jane", c.Draft().State["fullName"], "other fields keep their type")
	assert.Equal(t, "inspection", partial["contingencies"], "caller's partial is not modified")

	require.NoError(t, c.Update(FormState{"contingencies": []string{"inspection", "financing"}}, 0))
	assert.Equal(t, []string{"inspection", "financing"}, c.Draft().State["contingencies"])

	err := c.Update(FormState{"contingencies": true}, 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

// ==========================
// Navigation
// ==========================

func TestController_Next_BlocksOnMissingFields(t *testing.T) {
	c := newTestController(t, 1, FormState{"fullName": "Jane"})

	assert.False(t, c.CanAdvance())
	err := c.Next()
	require.Error(t, err)

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeStepIncomplete, stdErr.Code)
	assert.Equal(t, []string{"verifiedId"}, stdErr.Metadata["missing"])
	assert.Equal(t, 1, c.Draft().Step)
}

func TestController_Next_ValidatesEarlierSteps(t *testing.T) {
	// Step 2 is complete but step 1 lost its document.
	c := newTestController(t, 2, FormState{"fullName": "Jane", "verifiedId": nil, "offerAmount": 100.0, "depositAmount": 10.0})

	err := c.Next()
	require.Error(t, err)
	stdErr, _ := errors.AsStandard(err)
	assert.Equal(t, 1, stdErr.Metadata["step"])
	assert.Equal(t, 2, c.Draft().Step)
}

func TestController_Next_Advances(t *testing.T) {
	c := newTestController(t, 1, FormState{"fullName": "Jane", "verifiedId": testFile("id.pdf")})

	require.True(t, c.CanAdvance())
	require.NoError(t, c.Next())
	assert.Equal(t, 2, c.Draft().Step)
	assert.False(t, c.IsFinal())
}

func TestController_Next_OnFinalStep(t *testing.T) {
	c := newTestController(t, 3, FormState{})
	err := c.Next()
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	assert.Equal(t, 3, c.Draft().Step)
}

func TestController_Back(t *testing.T) {
	c := newTestController(t, 2, FormState{})
	c.Back()
	assert.Equal(t, 1, c.Draft().Step)

	c.Back()
	assert.Equal(t, 1, c.Draft().Step, "back on the first step stays put")
}

func TestController_ReadyToSubmit(t *testing.T) {
	complete := FormState{
		"fullName":      "Jane",
		"verifiedId":    testFile("id.pdf"),
		"offerAmount":   250000.0,
		"depositAmount": 25000.0,
		"agreeTerms":    true,
	}

	c := newTestController(t, 2, complete)
	assert.True(t, errors.HasCode(c.ReadyToSubmit(), errors.ErrCodeInvalidInput), "not on the final step")

	c = newTestController(t, 3, Merge(complete, FormState{"agreeTerms": nil}))
	assert.True(t, errors.HasCode(c.ReadyToSubmit(), errors.ErrCodeStepIncomplete))

	c = newTestController(t, 3, complete)
	assert.NoError(t, c.ReadyToSubmit())
}

// ==========================
// View
// ==========================

func TestController_View(t *testing.T) {
	c := newTestController(t, 1, FormState{"fullName": "Jane", "verifiedId": testFile("id.pdf"), "extra": "kept"})

	v := c.View()
	assert.Equal(t, "d-1", v.DraftID)
	assert.Equal(t, "offer", v.Wizard)
	assert.Equal(t, "p-1", v.PropertyID)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, 3, v.TotalSteps)
	assert.Equal(t, "Buyer", v.Title)
	assert.Equal(t, []string{"fullName", "verifiedId"}, v.Required)
	assert.Empty(t, v.Missing)
	assert.True(t, v.CanAdvance)
	assert.False(t, v.IsFinal)
	assert.False(t, v.CanSubmit)
	assert.Equal(t, "kept", v.Values["extra"])
	assert.NotContains(t, v.Values, "verifiedId")
	assert.Equal(t, FileInfo{Name: "id.pdf", ContentType: "application/pdf", Size: 4}, v.Files["verifiedId"])
}
