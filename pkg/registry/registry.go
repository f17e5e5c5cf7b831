// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"rental-portal/internal/common/validation"
)

//go:embed wizard_registry.schema.json
var registrySchema []byte

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// LoadRegistry reads a wizard registry from a .json, .yaml or .yml file.
func LoadRegistry(path string) (*WizardRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	reg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes a registry document, checks it against the embedded JSON
// Schema and then checks the rules a schema cannot express.
func Parse(data []byte, format Format) (*WizardRegistry, error) {
	var raw interface{}
	var reg WizardRegistry

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		if err := json.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported registry format %q", format)
	}

	schema, err := validation.CompileSchema(registrySchema)
	if err != nil {
		return nil, err
	}
	result, err := schema.ValidateDocument(raw)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("registry does not match schema: %s", strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks cross-field rules: unique ids, contiguous 1-based step
// indices, list fields that are not files, and auto-fill rules that reference
// real fields holding a single value.
func (r *WizardRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Wizards))
	for _, w := range r.Wizards {
		if seen[w.ID] {
			return fmt.Errorf("duplicate wizard id %q", w.ID)
		}
		seen[w.ID] = true

		fields := make(map[string]bool)
		for i, step := range w.Steps {
			if step.Index != i+1 {
				return fmt.Errorf("wizard %q: step %d has index %d, indices must be contiguous from 1", w.ID, i+1, step.Index)
			}
			for _, f := range step.Required {
				fields[f] = true
			}
			for _, rule := range step.AutoFill {
				fields[rule.Field] = true
			}
		}

		for _, f := range w.ListFields {
			if w.IsFileField(f) {
				return fmt.Errorf("wizard %q: field %q cannot be both a file and a list", w.ID, f)
			}
		}

		for _, step := range w.Steps {
			for _, rule := range step.AutoFill {
				if rule.PercentOf != "" && !fields[rule.PercentOf] {
					return fmt.Errorf("wizard %q: autofill %q derives from unknown field %q", w.ID, rule.Field, rule.PercentOf)
				}
				if w.IsFileField(rule.Field) {
					return fmt.Errorf("wizard %q: autofill cannot target file field %q", w.ID, rule.Field)
				}
				if w.IsListField(rule.Field) {
					return fmt.Errorf("wizard %q: autofill cannot target list field %q", w.ID, rule.Field)
				}
			}
		}
	}
	return nil
}
