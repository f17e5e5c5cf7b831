// internal/wizard/autofill.go
package wizard

import (
	"context"
	"math"

	"rental-portal/internal/common/logger"
	"rental-portal/internal/models"
	"rental-portal/pkg/registry"
)

// PropertyLookup fetches the listing a property-scoped wizard is about.
type PropertyLookup interface {
	GetProperty(ctx context.Context, token, id string) (*models.Property, error)
}

// AutoFiller pre-populates fields when a draft enters a step. A rule only
// fires when its field is not present yet, so user input is never replaced.
type AutoFiller struct {
	properties PropertyLookup
	logger     logger.Logger
}

func NewAutoFiller(properties PropertyLookup, log logger.Logger) *AutoFiller {
	return &AutoFiller{properties: properties, logger: log}
}

// Apply evaluates the rules of the draft's current step and returns the
// values to merge. A failed property fetch is logged and the property rules
// are skipped; it never blocks the step.
func (a *AutoFiller) Apply(ctx context.Context, def *registry.Wizard, draft *Draft, token string) FormState {
	filled := FormState{}
	step, ok := def.Step(draft.Step)
	if !ok || len(step.AutoFill) == 0 {
		return filled
	}

	var property *models.Property
	fetched := false

	for _, rule := range step.AutoFill {
		if IsPresent(draft.State[rule.Field]) || IsPresent(filled[rule.Field]) {
			continue
		}

		switch {
		case rule.From != "":
			if !fetched {
				fetched = true
				property = a.fetchProperty(ctx, def, draft, token)
			}
			if property == nil {
				continue
			}
			if v := propertyValue(property, rule.From); v > 0 {
				filled[rule.Field] = v
			}

		case rule.PercentOf != "":
			base, ok := numberOf(filled[rule.PercentOf])
			if !ok {
				base, ok = numberOf(draft.State[rule.PercentOf])
			}
			if !ok || base <= 0 {
				continue
			}
			filled[rule.Field] = roundCents(base * rule.Percent / 100)
		}
	}

	if len(filled) > 0 {
		a.logger.Debug("Auto-filled wizard fields", map[string]interface{}{
			"draftId": draft.ID,
			"wizard":  def.ID,
			"step":    draft.Step,
			"fields":  len(filled),
		})
	}
	return filled
}

func (a *AutoFiller) fetchProperty(ctx context.Context, def *registry.Wizard, draft *Draft, token string) *models.Property {
	if draft.PropertyID == "" || a.properties == nil {
		return nil
	}
	p, err := a.properties.GetProperty(ctx, token, draft.PropertyID)
	if err != nil {
		a.logger.Warn("Property lookup for auto-fill failed", map[string]interface{}{
			"draftId":    draft.ID,
			"wizard":     def.ID,
			"propertyId": draft.PropertyID,
			"error":      err,
		})
		return nil
	}
	return p
}

func propertyValue(p *models.Property, attr string) float64 {
	switch attr {
	case "price":
		return p.Price
	case "rent":
		return p.Rent
	}
	return 0
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
