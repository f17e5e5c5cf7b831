// internal/wizard/controller.go
package wizard

import (
	"fmt"
	"time"

	"rental-portal/internal/common/errors"
	"rental-portal/pkg/registry"
)

// Draft is one in-progress wizard: the current step plus the accumulated
// form state. Drafts are owned by the signed-in user that started them.
type Draft struct {
	ID         string    `json:"id"`
	WizardID   string    `json:"wizard"`
	PropertyID string    `json:"propertyId,omitempty"`
	Owner      string    `json:"owner"`
	Step       int       `json:"step"`
	State      FormState `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StepView is the render model for the current step of a draft.
type StepView struct {
	DraftID    string                 `json:"draftId"`
	Wizard     string                 `json:"wizard"`
	PropertyID string                 `json:"propertyId,omitempty"`
	Step       int                    `json:"step"`
	TotalSteps int                    `json:"totalSteps"`
	Title      string                 `json:"title"`
	Required   []string               `json:"required"`
	Missing    []string               `json:"missing"`
	CanAdvance bool                   `json:"canAdvance"`
	IsFinal    bool                   `json:"isFinal"`
	CanSubmit  bool                   `json:"canSubmit"`
	Values     map[string]interface{} `json:"values"`
	Files      map[string]FileInfo    `json:"files"`
}

// Controller drives a draft through the steps of its wizard definition.
type Controller struct {
	def   *registry.Wizard
	draft *Draft
}

func NewController(def *registry.Wizard, draft *Draft) (*Controller, error) {
	if def == nil || draft == nil {
		return nil, fmt.Errorf("wizard definition and draft are required")
	}
	if draft.WizardID != def.ID {
		return nil, fmt.Errorf("draft %s belongs to wizard %q, not %q", draft.ID, draft.WizardID, def.ID)
	}
	if draft.Step < 1 || draft.Step > def.TotalSteps() {
		return nil, fmt.Errorf("draft %s is on step %d of %d", draft.ID, draft.Step, def.TotalSteps())
	}
	if draft.State == nil {
		draft.State = FormState{}
	}
	return &Controller{def: def, draft: draft}, nil
}

func (c *Controller) Draft() *Draft { return c.draft }

func (c *Controller) Definition() *registry.Wizard { return c.def }

// Update merges a partial state into the draft. File fields accept only files
// (or nil to clear them); a file is refused under any other key. List fields
// always store a []string. maxFileBytes of 0 disables the size check.
func (c *Controller) Update(partial FormState, maxFileBytes int64) error {
	partial = partial.Clone()
	for key, value := range partial {
		if c.def.IsListField(key) {
			list, err := AsList(value)
			if err != nil {
				return errors.NewInvalidInputError(fmt.Sprintf("field %q: %v", key, err))
			}
			partial[key] = list
			continue
		}
		file, isFile := value.(*File)
		if c.def.IsFileField(key) {
			if value != nil && (!isFile || file == nil) {
				return errors.NewInvalidFileFieldError(key, fmt.Sprintf("got %T", value))
			}
			if isFile && file != nil && maxFileBytes > 0 && file.Size > maxFileBytes {
				return errors.NewFileTooLargeError(key, file.Size, maxFileBytes)
			}
			continue
		}
		if isFile {
			return errors.NewInvalidInputError(fmt.Sprintf("field %q does not accept files", key))
		}
	}
	c.draft.State = Merge(c.draft.State, partial)
	c.draft.UpdatedAt = time.Now().UTC()
	return nil
}

// CanAdvance is true when the current step and every step before it are
// complete.
func (c *Controller) CanAdvance() bool {
	step, _ := FirstIncomplete(c.def, c.draft.Step, c.draft.State)
	return step == 0
}

func (c *Controller) IsFinal() bool {
	return c.draft.Step == c.def.TotalSteps()
}

// Next moves to the following step. It refuses while any step up to the
// current one has missing fields, and on the final step.
func (c *Controller) Next() error {
	if c.IsFinal() {
		return errors.NewInvalidInputError("already on the final step, submit instead")
	}
	if step, missing := FirstIncomplete(c.def, c.draft.Step, c.draft.State); step != 0 {
		return errors.NewStepIncompleteError(c.def.ID, step, missing)
	}
	c.draft.Step++
	c.draft.UpdatedAt = time.Now().UTC()
	return nil
}

// Back moves to the previous step without validating. On step 1 it does nothing.
func (c *Controller) Back() {
	if c.draft.Step > 1 {
		c.draft.Step--
		c.draft.UpdatedAt = time.Now().UTC()
	}
}

// ReadyToSubmit checks that the draft sits on the final step with every step
// complete.
func (c *Controller) ReadyToSubmit() error {
	if !c.IsFinal() {
		return errors.NewInvalidInputError(fmt.Sprintf("submit is only allowed on step %d", c.def.TotalSteps()))
	}
	if step, missing := FirstIncomplete(c.def, c.def.TotalSteps(), c.draft.State); step != 0 {
		return errors.NewStepIncompleteError(c.def.ID, step, missing)
	}
	return nil
}

func (c *Controller) View() *StepView {
	step, _ := c.def.Step(c.draft.Step)
	files := c.draft.State.Files()
	infos := make(map[string]FileInfo, len(files))
	for k, f := range files {
		infos[k] = f.Info()
	}
	required := append([]string{}, step.Required...)

	return &StepView{
		DraftID:    c.draft.ID,
		Wizard:     c.def.ID,
		PropertyID: c.draft.PropertyID,
		Step:       c.draft.Step,
		TotalSteps: c.def.TotalSteps(),
		Title:      step.Title,
		Required:   required,
		Missing:    MissingFields(step, c.draft.State),
		CanAdvance: c.CanAdvance(),
		IsFinal:    c.IsFinal(),
		CanSubmit:  c.IsFinal() && c.ReadyToSubmit() == nil,
		Values:     c.draft.State.Scalars(),
		Files:      infos,
	}
}
