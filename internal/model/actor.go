package model

// Role values carried in the JWT "role" claim.  Sales, admin and
// master users may place and confirm holds; master and admin may also
// trigger the expiry sweep on demand.
const (
	RoleMaster = "MASTER"
	RoleAdmin  = "ADMIN"
	RoleSales  = "SALES"
)

// Actor is the identity/role context resolved by the auth middleware
// from the caller's token.  The engine consumes it; it never manages
// sessions or credentials itself.
type Actor struct {
	UserID uint64
	OrgID  uint64
	Role   string
}

// CanAccessOrg reports whether the actor may act on data owned by the
// given organization.  Master users operate across organizations.
func (a Actor) CanAccessOrg(orgID uint64) bool {
	return a.Role == RoleMaster || a.OrgID == orgID
}
