// cmd/tools/wizard-registry/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-portal/pkg/registry"
)

func copyRegistry(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "configs", "wizards.yaml"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "wizards.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRun_ValidateListShow(t *testing.T) {
	path := copyRegistry(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"validate", "-path", path}, &out))
	assert.Contains(t, out.String(), "Registry validation passed")

	out.Reset()
	require.NoError(t, run([]string{"list", "-path", path}, &out))
	assert.Contains(t, out.String(), "offer")
	assert.Contains(t, out.String(), "rental-application")

	out.Reset()
	require.NoError(t, run([]string{"show", "-path", path, "-id", "offer"}, &out))
	assert.Contains(t, out.String(), "step 1: Buyer details")
	assert.Contains(t, out.String(), "depositAmount <- 10% of offerAmount")
	assert.Contains(t, out.String(), "lists: contingencies")
}

func TestRun_UpdateRoundTrips(t *testing.T) {
	path := copyRegistry(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"update", "-path", path, "-id", "offer", "-field", "displayName", "-value", "Place an offer"}, &out))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	w, ok := reg.Wizard("offer")
	require.True(t, ok)
	assert.Equal(t, "Place an offer", w.DisplayName)
	assert.Equal(t, 5, w.TotalSteps())
}

func TestRun_Errors(t *testing.T) {
	path := copyRegistry(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"show without id", []string{"show", "-path", path}},
		{"show unknown wizard", []string{"show", "-path", path, "-id", "nope"}},
		{"update unknown field", []string{"update", "-path", path, "-id", "offer", "-field", "steps", "-value", "x"}},
		{"missing file", []string{"validate", "-path", filepath.Join(t.TempDir(), "none.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args, &bytes.Buffer{}))
		})
	}
}

func TestRun_AddScaffoldsWizard(t *testing.T) {
	path := copyRegistry(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"add", "-path", path, "-id", "lease-renewal", "-displayName", "Lease renewal",
		"-submitPath", "/renewals", "-steps", "Current lease, New terms"}, &out))
	assert.Contains(t, out.String(), "lease-renewal (2 steps)")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	w, ok := reg.Wizard("lease-renewal")
	require.True(t, ok)
	assert.Equal(t, "New terms", w.Steps[1].Title)

	assert.Error(t, run([]string{"add", "-path", path, "-id", "lease-renewal", "-displayName", "Again",
		"-submitPath", "/renewals", "-steps", "One"}, &bytes.Buffer{}), "duplicate ids are refused")
}

func TestRun_AddCreatesMissingRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wizards.json")

	require.NoError(t, run([]string{"add", "-path", path, "-id", "tour", "-displayName", "Book a tour",
		"-submitPath", "/tours", "-steps", "When"}, &bytes.Buffer{}))

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Wizards, 1)
}
