package model

import "time"

// Project is the construction project tasks are scheduled against
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	EndDate   Date      `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectPatch holds the admin-mutable project fields
type ProjectPatch struct {
	Name    *string `json:"name,omitempty"`
	EndDate *Date   `json:"end_date,omitempty"`
}

// Company is a subcontractor organization
type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BlockPrefix string    `json:"block_prefix,omitempty"`
	HasLogin    bool      `json:"has_login"`
	LoginEmail  string    `json:"login_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
