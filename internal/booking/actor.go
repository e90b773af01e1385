package booking

// Role is the authorization role of the calling identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated (userId, role) pair supplied per call by the session layer.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the owner of a resource held by userID.
func (a Actor) Owns(userID string) bool {
	return a.UserID != "" && a.UserID == userID
}

// System is the actor used for policy-driven cancellations.
var System = Actor{UserID: "system", Role: RoleAdmin}
