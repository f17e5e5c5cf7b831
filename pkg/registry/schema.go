// pkg/registry/schema.go
package registry

// WizardRegistry is the declarative description of every multi-step form the
// portal serves: which fields each step requires and which fields are files.
type WizardRegistry struct {
	Version     string   `json:"version" yaml:"version"`
	LastUpdated string   `json:"lastUpdated" yaml:"lastUpdated"`
	Wizards     []Wizard `json:"wizards" yaml:"wizards"`
}

type Wizard struct {
	ID             string   `json:"id" yaml:"id"`
	DisplayName    string   `json:"displayName" yaml:"displayName"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	SubmitPath     string   `json:"submitPath" yaml:"submitPath"`
	PropertyScoped bool     `json:"propertyScoped" yaml:"propertyScoped"`
	FileFields     []string `json:"fileFields" yaml:"fileFields"`
	ListFields     []string `json:"listFields,omitempty" yaml:"listFields,omitempty"`
	Steps          []Step   `json:"steps" yaml:"steps"`
}

// Step indices are 1-based and contiguous.
type Step struct {
	Index    int            `json:"index" yaml:"index"`
	Title    string         `json:"title" yaml:"title"`
	Required []string       `json:"required" yaml:"required"`
	AutoFill []AutoFillRule `json:"autofill,omitempty" yaml:"autofill,omitempty"`
}

// AutoFillRule derives Field when the draft enters the step and Field is still
// empty. From names a property attribute ("price", "rent"); PercentOf/Percent
// derive from another form field instead.
type AutoFillRule struct {
	Field     string  `json:"field" yaml:"field"`
	From      string  `json:"from,omitempty" yaml:"from,omitempty"`
	PercentOf string  `json:"percentOf,omitempty" yaml:"percentOf,omitempty"`
	Percent   float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// Wizard looks up a definition by id.
func (r *WizardRegistry) Wizard(id string) (*Wizard, bool) {
	for i := range r.Wizards {
		if r.Wizards[i].ID == id {
			return &r.Wizards[i], true
		}
	}
	return nil, false
}

func (w *Wizard) TotalSteps() int {
	return len(w.Steps)
}

// Step returns the step with the given 1-based index.
func (w *Wizard) Step(index int) (*Step, bool) {
	if index < 1 || index > len(w.Steps) {
		return nil, false
	}
	return &w.Steps[index-1], true
}

// IsListField reports whether name always holds a list of strings, however
// many values were sent.
func (w *Wizard) IsListField(name string) bool {
	for _, f := range w.ListFields {
		if f == name {
			return true
		}
	}
	return false
}

func (w *Wizard) IsFileField(name string) bool {
	for _, f := range w.FileFields {
		if f == name {
			return true
		}
	}
	return false
}
