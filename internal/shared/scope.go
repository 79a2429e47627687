package shared

// Role names stored on the accounts table.
const (
	RoleTherapist = "THERAPIST"
	RoleAdmin     = "ADMIN"
)

// Scope is the owner capability attached to every authenticated request.
// Repositories filter every query by Scope.UserID, so the tenant-isolation
// invariant lives here instead of being re-stated at each call site.
type Scope struct {
	UserID int64
	Role   string
}

// Valid reports whether the scope identifies an authenticated owner.
func (s Scope) Valid() bool {
	return s.UserID > 0
}

// IsAdmin reports whether the scope carries the admin role.
func (s Scope) IsAdmin() bool {
	return s.Role == RoleAdmin
}
