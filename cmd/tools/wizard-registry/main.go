// cmd/tools/wizard-registry/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rental-portal/pkg/registry"
)

const defaultPath = "configs/wizards.yaml"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		if len(reg.Wizards) == 0 {
			return fmt.Errorf("registry contains no wizards")
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d wizards.\n", len(reg.Wizards))

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return err
		}
		for _, w := range reg.Wizards {
			fmt.Fprintf(out, "%-24s %-28s steps=%d files=%d\n", w.ID, w.DisplayName, w.TotalSteps(), len(w.FileFields))
		}

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Wizard ID (e.g., offer)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" {
			return fmt.Errorf("id is required for show")
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return err
		}
		w, ok := reg.Wizard(*id)
		if !ok {
			return fmt.Errorf("wizard with ID %s not found", *id)
		}
		showWizard(out, w)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Wizard ID (e.g., lease-renewal)")
		displayName := fs.String("displayName", "", "Display Name (e.g., Lease renewal)")
		description := fs.String("description", "", "Description")
		submitPath := fs.String("submitPath", "", "Backend path the finished form is posted to (e.g., /renewals)")
		steps := fs.String("steps", "", "Comma-separated step titles")
		propertyScoped := fs.Bool("propertyScoped", false, "Draft belongs to a listing")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *displayName == "" || *submitPath == "" || *steps == "" {
			return fmt.Errorf("id, displayName, submitPath, and steps are required for add")
		}
		w := registry.Wizard{
			ID:             *id,
			DisplayName:    *displayName,
			Description:    *description,
			SubmitPath:     *submitPath,
			PropertyScoped: *propertyScoped,
			FileFields:     []string{},
		}
		for i, title := range strings.Split(*steps, ",") {
			w.Steps = append(w.Steps, registry.Step{Index: i + 1, Title: strings.TrimSpace(title), Required: []string{}})
		}
		if err := addWizard(*path, w); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added wizard: %s (%d steps)\n", w.ID, len(w.Steps))

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Wizard ID to update")
		field := fs.String("field", "", "Field to update (displayName, description, submitPath)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateWizard(*path, *id, *field, *value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated wizard %s, field %s to %s\n", *id, *field, *value)

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func showWizard(out io.Writer, w *registry.Wizard) {
	fmt.Fprintf(out, "%s (%s)\n", w.DisplayName, w.ID)
	if w.Description != "" {
		fmt.Fprintf(out, "  %s\n", w.Description)
	}
	fmt.Fprintf(out, "  submit: %s  propertyScoped: %t\n", w.SubmitPath, w.PropertyScoped)
	if len(w.FileFields) > 0 {
		fmt.Fprintf(out, "  files: %s\n", strings.Join(w.FileFields, ", "))
	}
	if len(w.ListFields) > 0 {
		fmt.Fprintf(out, "  lists: %s\n", strings.Join(w.ListFields, ", "))
	}
	for _, s := range w.Steps {
		fmt.Fprintf(out, "  step %d: %s\n", s.Index, s.Title)
		if len(s.Required) > 0 {
			fmt.Fprintf(out, "    required: %s\n", strings.Join(s.Required, ", "))
		}
		for _, r := range s.AutoFill {
			switch {
			case r.From != "":
				fmt.Fprintf(out, "    autofill: %s <- property.%s\n", r.Field, r.From)
			case r.PercentOf != "":
				fmt.Fprintf(out, "    autofill: %s <- %g%% of %s\n", r.Field, r.Percent, r.PercentOf)
			}
		}
	}
}

func addWizard(path string, w registry.Wizard) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.WizardRegistry{Version: "1.0.0"}
	}

	if _, exists := reg.Wizard(w.ID); exists {
		return fmt.Errorf("wizard with ID %s already exists", w.ID)
	}
	reg.Wizards = append(reg.Wizards, w)
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

func updateWizard(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	w, ok := reg.Wizard(id)
	if !ok {
		return fmt.Errorf("wizard with ID %s not found", id)
	}
	switch field {
	case "displayName":
		w.DisplayName = value
	case "description":
		w.Description = value
	case "submitPath":
		w.SubmitPath = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().Format(time.RFC3339)
	if err := reg.Validate(); err != nil {
		return err
	}
	return saveRegistry(reg, path)
}

// saveRegistry writes the registry back in the format its extension names.
func saveRegistry(reg *registry.WizardRegistry, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(reg)
	default:
		data, err = json.MarshalIndent(reg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: wizard-registry <command> [flags]

Commands:
  validate  Validate the registry file against its schema
  list      List the wizards in the registry
  show      Print the steps of one wizard
  add       Scaffold a new wizard with empty steps
  update    Update a wizard's display field
  help      Show this help message

Examples:
  wizard-registry validate -path configs/wizards.yaml
  wizard-registry show -id offer
  wizard-registry add -id lease-renewal -displayName "Lease renewal" -submitPath /renewals -steps "Current lease,New terms"
  wizard-registry update -id offer -field displayName -value "Make an Offer"`)
}
