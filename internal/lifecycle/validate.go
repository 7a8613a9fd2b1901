package lifecycle

import (
	"strings"

	"github.com/existflow/sitetask/internal/model"
)

// Validate checks the stored-field invariants of a task against the block
// catalog. The first violation is returned as a *model.ValidationError.
func Validate(t *model.Task, catalog Catalog) error {
	if t.ProjectID == "" {
		return model.Invalid("project_id", "required")
	}
	if t.CompanyID == "" {
		return model.Invalid("company_id", "required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return model.Invalid("title", "required")
	}
	if strings.TrimSpace(t.Block) == "" {
		return model.Invalid("block", "required")
	}
	if t.StartDate.IsZero() {
		return model.Invalid("start_date", "required")
	}
	if t.DueDate.IsZero() {
		return model.Invalid("due_date", "required")
	}
	if t.DueDate.Before(t.StartDate) {
		return model.Invalid("due_date", "must not be before start_date")
	}
	if !t.Status.Valid() {
		return model.Invalid("status", "must be planned or in_progress")
	}
	if t.HasDependency() && *t.DependentCompanyID == t.CompanyID {
		return model.Invalid("dependent_company_id", "a task cannot depend on its own company")
	}
	return validateFloors(t, catalog)
}

func validateFloors(t *model.Task, catalog Catalog) error {
	if t.Floor != nil && t.HasFloorRange() {
		return model.Invalid("floor", "set either floor or floor_from/floor_to, not both")
	}
	if t.HasFloorRange() && (t.FloorFrom == nil || t.FloorTo == nil) {
		return model.Invalid("floor_from", "floor range needs both floor_from and floor_to")
	}

	block, ok := catalog.Lookup(t.Block)
	if !ok {
		if len(catalog) == 0 {
			return nil
		}
		return model.Invalid("block", "unknown block "+t.Block)
	}

	if !block.HasFloors() {
		if t.Floor != nil || t.HasFloorRange() {
			return model.Invalid("floor", t.Block+" has no floors")
		}
		return nil
	}

	switch {
	case t.Floor != nil:
		if !block.ValidFloor(*t.Floor) {
			return model.Invalid("floor", "not a floor of "+t.Block)
		}
	case t.HasFloorRange():
		if !block.ValidFloor(*t.FloorFrom) {
			return model.Invalid("floor_from", "not a floor of "+t.Block)
		}
		if !block.ValidFloor(*t.FloorTo) {
			return model.Invalid("floor_to", "not a floor of "+t.Block)
		}
		if *t.FloorFrom > *t.FloorTo {
			return model.Invalid("floor_from", "must not be above floor_to")
		}
	default:
		return model.Invalid("floor", "select a floor or a floor range")
	}
	return nil
}
