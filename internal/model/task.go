package model

import "time"

// TaskStatus is the stored work state of a task
type TaskStatus string

const (
	StatusPlanned    TaskStatus = "planned"
	StatusInProgress TaskStatus = "in_progress"
)

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	return s == StatusPlanned || s == StatusInProgress
}

// Task is a unit of subcontractor work on a project
type Task struct {
	ID                   string     `json:"id"`
	ProjectID            string     `json:"project_id"`
	CompanyID            string     `json:"company_id"`
	CompanyName          string     `json:"company_name,omitempty"`
	Block                string     `json:"block"`
	Floor                *int       `json:"floor,omitempty"`
	FloorFrom            *int       `json:"floor_from,omitempty"`
	FloorTo              *int       `json:"floor_to,omitempty"`
	Title                string     `json:"title"`
	Notes                string     `json:"notes,omitempty"`
	StartDate            Date       `json:"start_date"`
	DueDate              Date       `json:"due_date"`
	Status               TaskStatus `json:"status"`
	IsCompleted          bool       `json:"is_completed"`
	IsApproved           bool       `json:"is_approved"`
	ApprovedAt           *time.Time `json:"approved_at,omitempty"`
	DependentCompanyID   *string    `json:"dependent_company_id,omitempty"`
	DependentCompanyName string     `json:"dependent_company_name,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasDependency reports whether the task waits on another company
func (t *Task) HasDependency() bool {
	return t.DependentCompanyID != nil && *t.DependentCompanyID != ""
}

// HasFloorRange reports whether either range bound is set
func (t *Task) HasFloorRange() bool {
	return t.FloorFrom != nil || t.FloorTo != nil
}

// LastTouched returns the most recent known timestamp of the task
func (t *Task) LastTouched() time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// TaskPatch holds the mutable task fields of a partial update.
// Nil fields are left untouched.
type TaskPatch struct {
	Block              *string     `json:"block,omitempty"`
	Floor              *int        `json:"floor,omitempty"`
	FloorFrom          *int        `json:"floor_from,omitempty"`
	FloorTo            *int        `json:"floor_to,omitempty"`
	ClearFloor         bool        `json:"clear_floor,omitempty"`
	ClearFloorRange    bool        `json:"clear_floor_range,omitempty"`
	Title              *string     `json:"title,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
	StartDate          *Date       `json:"start_date,omitempty"`
	DueDate            *Date       `json:"due_date,omitempty"`
	Status             *TaskStatus `json:"status,omitempty"`
	IsCompleted        *bool       `json:"is_completed,omitempty"`
	IsApproved         *bool       `json:"is_approved,omitempty"`
	DependentCompanyID *string     `json:"dependent_company_id,omitempty"`
}

// EditsFields reports whether the patch touches descriptive fields
// (anything other than status, completion and approval)
func (p *TaskPatch) EditsFields() bool {
	return p.Block != nil || p.Floor != nil || p.FloorFrom != nil || p.FloorTo != nil ||
		p.ClearFloor || p.ClearFloorRange || p.Title != nil || p.Notes != nil ||
		p.StartDate != nil || p.DueDate != nil || p.DependentCompanyID != nil
}

// Apply copies the set fields of p onto t
func (p *TaskPatch) Apply(t *Task) {
	if p.Block != nil {
		t.Block = *p.Block
	}
	if p.ClearFloor {
		t.Floor = nil
	}
	if p.ClearFloorRange {
		t.FloorFrom = nil
		t.FloorTo = nil
	}
	if p.Floor != nil {
		v := *p.Floor
		t.Floor = &v
	}
	if p.FloorFrom != nil {
		v := *p.FloorFrom
		t.FloorFrom = &v
	}
	if p.FloorTo != nil {
		v := *p.FloorTo
		t.FloorTo = &v
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.IsApproved != nil {
		t.IsApproved = *p.IsApproved
	}
	if p.DependentCompanyID != nil {
		if *p.DependentCompanyID == "" {
			t.DependentCompanyID = nil
		} else {
			v := *p.DependentCompanyID
			t.DependentCompanyID = &v
		}
	}
}

// TaskFilter narrows a task listing
type TaskFilter struct {
	ProjectID      string
	CompanyID      string
	ApprovedOnly   bool
	UnapprovedOnly bool
	ApprovedSince  *time.Time
	// VisibleTo limits rows to approved ones plus those of this company.
	VisibleTo string
}
