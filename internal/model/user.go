package model

import "time"

// Role is the authorization scope of a profile
type Role string

const (
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleContractor || r == RoleAdmin
}

// Profile is a login account
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Role         Role      `json:"role"`
	CompanyID    string    `json:"company_id,omitempty"`
	CompanyName  string    `json:"company_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Viewer returns the authorization identity of the profile
func (p *Profile) Viewer() *Viewer {
	return &Viewer{
		UserID:      p.ID,
		Email:       p.Email,
		Role:        p.Role,
		CompanyID:   p.CompanyID,
		CompanyName: p.CompanyName,
	}
}

// Viewer is the resolved identity every authorization check receives
type Viewer struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// IsAdmin reports whether the viewer holds the admin role
func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == RoleAdmin
}

// Owns reports whether the viewer's company owns the task
func (v *Viewer) Owns(t *Task) bool {
	return v != nil && v.CompanyID != "" && v.CompanyID == t.CompanyID
}

// Session represents an active login session
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// MagicLink represents a passwordless login link
type MagicLink struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsExpired returns true if the magic link has expired
func (m *MagicLink) IsExpired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}
