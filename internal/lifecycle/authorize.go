package lifecycle

import (
	"github.com/existflow/sitetask/internal/model"
)

// Action is a lifecycle operation a viewer may request on a task
type Action string

const (
	ActionCreate    Action = "create"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionDeleteAny Action = "delete_any"
	ActionDeleteOwn Action = "delete_own"
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
	ActionComplete  Action = "complete"
	ActionEdit      Action = "edit"
)

// Authorize decides whether viewer may perform action on t.
// It returns nil, model.ErrUnauthenticated, model.ErrNotFound (nil task
// for a non-create action) or an error matching model.ErrForbidden.
func Authorize(viewer *model.Viewer, t *model.Task, action Action) error {
	if viewer == nil || viewer.UserID == "" {
		return model.ErrUnauthenticated
	}

	if action == ActionCreate {
		if !viewer.IsAdmin() && viewer.CompanyID == "" {
			return model.Forbidden("account is not linked to a company")
		}
		return nil
	}

	if t == nil {
		return model.ErrNotFound
	}

	switch action {
	case ActionApprove, ActionReject, ActionDeleteAny:
		if viewer.IsAdmin() {
			return nil
		}
		return model.Forbidden("admin role required")

	case ActionStart, ActionStop, ActionComplete, ActionEdit:
		if viewer.IsAdmin() || viewer.Owns(t) {
			return nil
		}
		return model.Forbidden("task belongs to another company")

	case ActionDeleteOwn:
		if viewer.IsAdmin() {
			return nil
		}
		if !viewer.Owns(t) {
			return model.Forbidden("task belongs to another company")
		}
		if t.IsApproved {
			return model.Forbidden("cannot delete an approved task")
		}
		return nil
	}

	return model.Forbidden("action not permitted")
}

// DeleteAction picks the delete action that applies to viewer
func DeleteAction(viewer *model.Viewer) Action {
	if viewer.IsAdmin() {
		return ActionDeleteAny
	}
	return ActionDeleteOwn
}

// PrepareCreate authorizes a new task and pins the fields a creator may
// not choose. A contractor's task always belongs to the contractor's own
// company; any other company id is overwritten.
func PrepareCreate(viewer *model.Viewer, t *model.Task) error {
	if err := Authorize(viewer, nil, ActionCreate); err != nil {
		return err
	}
	if !viewer.IsAdmin() {
		t.CompanyID = viewer.CompanyID
		t.CompanyName = viewer.CompanyName
	}
	t.Status = model.StatusPlanned
	t.IsCompleted = false
	t.IsApproved = false
	t.ApprovedAt = nil
	return nil
}

// Transition applies the state change of action to t, refusing moves the
// current state does not allow
func Transition(t *model.Task, action Action) error {
	switch action {
	case ActionStart:
		if t.IsCompleted {
			return model.Invalid("status", "task is already completed")
		}
		if t.Status != model.StatusPlanned {
			return model.Invalid("status", "only a planned task can be started")
		}
		t.Status = model.StatusInProgress
	case ActionStop:
		if t.IsCompleted {
			return model.Invalid("status", "task is already completed")
		}
		if t.Status != model.StatusInProgress {
			return model.Invalid("status", "only a task in progress can be stopped")
		}
		t.Status = model.StatusPlanned
	case ActionComplete:
		if t.IsCompleted {
			return model.Invalid("is_completed", "task is already completed")
		}
		if t.Status != model.StatusInProgress {
			return model.Invalid("is_completed", "start the task before completing it")
		}
		t.IsCompleted = true
	case ActionApprove:
		t.IsApproved = true
	case ActionReject:
		if t.IsApproved {
			return model.Invalid("is_approved", "task is already approved")
		}
	}
	return nil
}

// PatchActions lists the lifecycle actions a partial update amounts to
func PatchActions(current *model.Task, p *model.TaskPatch) []Action {
	var actions []Action
	if p.EditsFields() {
		actions = append(actions, ActionEdit)
	}
	if p.Status != nil && *p.Status != current.Status {
		switch *p.Status {
		case model.StatusInProgress:
			actions = append(actions, ActionStart)
		case model.StatusPlanned:
			actions = append(actions, ActionStop)
		}
	}
	if p.IsCompleted != nil && *p.IsCompleted != current.IsCompleted {
		if *p.IsCompleted {
			actions = append(actions, ActionComplete)
		} else {
			actions = append(actions, ActionEdit)
		}
	}
	if p.IsApproved != nil && *p.IsApproved != current.IsApproved {
		actions = append(actions, ActionApprove)
	}
	return actions
}

// AuthorizePatch checks every action a patch implies, in order, against a
// scratch copy of current. Approval changes are reserved to admins.
func AuthorizePatch(viewer *model.Viewer, current *model.Task, p *model.TaskPatch) ([]Action, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, model.Invalid("status", "must be planned or in_progress")
	}
	if p.IsApproved != nil && !viewer.IsAdmin() {
		if viewer == nil || viewer.UserID == "" {
			return nil, model.ErrUnauthenticated
		}
		return nil, model.Forbidden("only an admin can change approval")
	}

	actions := PatchActions(current, p)
	if len(actions) == 0 {
		return nil, model.Invalid("", "nothing to update")
	}

	next := *current
	for _, a := range actions {
		if err := Authorize(viewer, &next, a); err != nil {
			return nil, err
		}
		if a == ActionApprove && p.IsApproved != nil && !*p.IsApproved {
			next.IsApproved = false
			continue
		}
		if err := Transition(&next, a); err != nil {
			return nil, err
		}
	}
	return actions, nil
}
