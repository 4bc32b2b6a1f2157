package model

import "time"

// Role distinguishes back-office staff from label-side partners.
type Role string

const (
	RoleStaff   Role = "staff"
	RolePartner Role = "partner"
)

// Permissions is the fixed-shape capability record attached to a user.
type Permissions struct {
	CanManageArtists  bool `json:"canManageArtists"`
	CanManageReleases bool `json:"canManageReleases"`
	CanCreateSubLabels bool `json:"canCreateSubLabels"`
	CanSubmitAlbums   bool `json:"canSubmitAlbums"`
	CanDeleteReleases bool `json:"canDeleteReleases"`
	CanOnboardLabels  bool `json:"canOnboardLabels"`
	CanManageNetwork  bool `json:"canManageNetwork"`
	CanManageEmployees bool `json:"canManageEmployees"`
}

// StaffPermissions returns the full capability set granted to staff accounts.
func StaffPermissions() Permissions {
	return Permissions{
		CanManageArtists:   true,
		CanManageReleases:  true,
		CanCreateSubLabels: true,
		CanSubmitAlbums:    true,
		CanDeleteReleases:  true,
		CanOnboardLabels:   true,
		CanManageNetwork:   true,
		CanManageEmployees: true,
	}
}

// User is an account able to act on the back office or partner dashboard.
type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	// PasswordHash and ResetToken persist in the user document; API
	// responses go through server.userResponse, which omits them.
	PasswordHash string      `json:"passwordHash"`
	ResetToken   string      `json:"resetToken,omitempty"`
	Role         Role        `json:"role"`
	LabelID      string      `json:"labelId,omitempty"` // empty for staff
	Permissions  Permissions `json:"permissions"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Actor is the authenticated identity performing a lifecycle operation.
type Actor struct {
	UserID      string
	Name        string
	Role        Role
	LabelID     string
	Permissions Permissions
}

// IsStaff reports whether the actor belongs to the back-office team.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}
