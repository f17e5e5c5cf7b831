// internal/wizard/state_test.go
package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func testDefinition() *registry.Wizard {
	return &registry.Wizard{
		ID:             "offer",
		DisplayName:    "Make an offer",
		SubmitPath:     "/offers",
		PropertyScoped: true,
		FileFields:     []string{"verifiedId", "proofOfFunds"},
		ListFields:     []string{"contingencies"},
		Steps: []registry.Step{
			{Index: 1, Title: "Buyer", Required: []string{"fullName", "verifiedId"}},
			{
				Index:    2,
				Title:    "Amounts",
				Required: []string{"offerAmount", "depositAmount"},
				AutoFill: []registry.AutoFillRule{
					{Field: "offerAmount", From: "price"},
					{Field: "depositAmount", PercentOf: "offerAmount", Percent: 10},
				},
			},
			{Index: 3, Title: "Terms", Required: []string{"agreeTerms"}},
		},
	}
}

func testRegistry() *registry.WizardRegistry {
	return &registry.WizardRegistry{Version: "1", Wizards: []registry.Wizard{*testDefinition()}}
}

func testFile(name string) *File {
	return &File{Name: name, ContentType: "application/pdf", Size: 4, Data: []byte("%PDF")}
}

// ==========================
// Presence
// ==========================

func TestIsPresent(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"whitespace string", " ", true},
		{"text", "Jane", true},
		{"zero", 0.0, true},
		{"false", false, true},
		{"true", true, true},
		{"empty list", []string{}, false},
		{"list", []string{"Sam"}, true},
		{"empty any list", []interface{}{}, false},
		{"file", testFile("id.pdf"), true},
		{"nil file", (*File)(nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPresent(tt.value))
		})
	}
}

// ==========================
// Merge
// ==========================

func TestMerge(t *testing.T) {
	base := FormState{"fullName": "Jane", "phone": "555"}
	merged := Merge(base, FormState{"phone": "777", "phoneType": "mobile", "fullName": nil})

	assert.Equal(t, "777", merged["phone"])
	assert.Equal(t, "mobile", merged["phoneType"])

	value, kept := merged["fullName"]
	assert.True(t, kept, "keys are never removed")
	assert.Nil(t, value)
	assert.False(t, IsPresent(value))

	assert.Equal(t, "Jane", base["fullName"], "base is not mutated")
	assert.Len(t, base, 2)
}

func TestFormState_FilesAndScalars(t *testing.T) {
	state := FormState{"fullName": "Jane", "verifiedId": testFile("id.pdf"), "proofOfFunds": nil}

	files := state.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "id.pdf", files["verifiedId"].Name)

	scalars := state.Scalars()
	assert.Equal(t, map[string]interface{}{"fullName": "Jane", "proofOfFunds": nil}, scalars)
}

// ==========================
// Normalization
// ==========================

func TestNormalizeState(t *testing.T) {
	state, err := NormalizeState(map[string]interface{}{
		"occupants":  []interface{}{"Sam", "Alex"},
		"hasPets":    false,
		"annualRent": 24000.0,
		"term":       12,
		"note":       nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sam", "Alex"}, state["occupants"])
	assert.Equal(t, false, state["hasPets"])
	assert.Equal(t, 12.0, state["term"])
	assert.Nil(t, state["note"])

	_, err = NormalizeState(map[string]interface{}{"address": map[string]interface{}{"city": "Media"}})
	assert.Error(t, err)

	_, err = NormalizeState(map[string]interface{}{"occupants": []interface{}{"Sam", 3.0}})
	assert.Error(t, err)

	_, err = NormalizeState(map[string]interface{}{" ": "x"})
	assert.Error(t, err)
}

func TestAsList(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    interface{}
		wantErr bool
	}{
		{name: "single value", in: "inspection", want: []string{"inspection"}},
		{name: "empty value", in: "", want: []string{}},
		{name: "list", in: []string{"inspection", "financing"}, want: []string{"inspection", "financing"}},
		{name: "decoded json list", in: []interface{}{"inspection"}, want: []string{"inspection"}},
		{name: "nil clears", in: nil, want: nil},
		{name: "number", in: 3.0, wantErr: true},
		{name: "list of numbers", in: []interface{}{1.0}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsList(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberOf(t *testing.T) {
	v, ok := numberOf("250,000")
	assert.True(t, ok)
	assert.Equal(t, 250000.0, v)

	_, ok = numberOf("soon")
	assert.False(t, ok)

	_, ok = numberOf(true)
	assert.False(t, ok)
}
