// internal/wizard/validator.go
package wizard

import "rental-portal/pkg/registry"

// MissingFields lists the required fields of step that are not present, in
// declaration order.
func MissingFields(step *registry.Step, state FormState) []string {
	missing := []string{}
	for _, field := range step.Required {
		if !IsPresent(state[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

// StepComplete reports whether every required field of the given 1-based
// step is present. Unknown steps are never complete.
func StepComplete(def *registry.Wizard, step int, state FormState) bool {
	s, ok := def.Step(step)
	if !ok {
		return false
	}
	return len(MissingFields(s, state)) == 0
}

// FirstIncomplete checks steps 1..upTo and returns the first one with
// missing fields, or 0 when all of them are complete.
func FirstIncomplete(def *registry.Wizard, upTo int, state FormState) (int, []string) {
	if upTo > def.TotalSteps() {
		upTo = def.TotalSteps()
	}
	for i := 1; i <= upTo; i++ {
		s, _ := def.Step(i)
		if missing := MissingFields(s, state); len(missing) > 0 {
			return i, missing
		}
	}
	return 0, nil
}
