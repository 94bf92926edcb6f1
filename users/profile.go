package users

import (
	"slices"
	"strings"
)

// Role is a console role as reported by the backend.
type Role string

const (
	RoleAdmin    Role = "admin"    // Full access including CA management
	RoleOperator Role = "operator" // Issues and revokes certificates
	RoleAuditor  Role = "auditor"  // Read-only access to audit trails
	RoleViewer   Role = "viewer"   // Read-only access to inventory
)

// Profile is the signed-in user as returned by the login endpoint.
type Profile struct {
	ID        string   `json:"id,omitempty"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Roles     []Role   `json:"roles,omitempty"`
	TenantIDs []string `json:"tenant_ids,omitempty"`
}

// DisplayName is the full name, or the email when no name is set.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// HasRole reports whether the profile carries role.
func (p *Profile) HasRole(role Role) bool {
	return slices.Contains(p.Roles, role)
}

// IsAdmin returns true for console administrators
func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanIssue reports whether the user may issue or revoke certificates.
func (p *Profile) CanIssue() bool {
	return p.HasRole(RoleAdmin) || p.HasRole(RoleOperator)
}

// HasTenant is true for an empty tenantID and for profiles without tenant
// restrictions.
func (p *Profile) HasTenant(tenantID string) bool {
	if tenantID == "" || len(p.TenantIDs) == 0 {
		return true
	}
	return slices.Contains(p.TenantIDs, tenantID)
}
