// Package session holds the identity of the caller for the duration of one
// request. Sessions are built by the auth middleware and handed explicitly to
// every service and source call; there is no ambient current user.
package session

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleAdmin     Role = "admin"
)

type Session struct {
	UserID string
	Role   Role
	Name   string
	// Token is the caller's bearer token, forwarded to the backend.
	Token string
}

// Anonymous returns the session of an unauthenticated caller.
func Anonymous() *Session {
	return &Session{}
}

func New(userID string, role Role, name, token string) *Session {
	if role == "" {
		role = RolePassenger
	}
	return &Session{
		UserID: userID,
		Role:   role,
		Name:   name,
		Token:  token,
	}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

func (s *Session) IsDriver() bool {
	return s.Authenticated() && s.Role == RoleDriver
}

// Owns reports whether the session belongs to userID. Admins own everything.
func (s *Session) Owns(userID string) bool {
	if !s.Authenticated() {
		return false
	}
	return s.IsAdmin() || s.UserID == userID
}

func ParseRole(value string) Role {
	switch Role(value) {
	case RoleDriver, RoleAdmin:
		return Role(value)
	// backend and legacy tokens still say "rider" / "conducteur"
	case "rider", "passager":
		return RolePassenger
	case "conducteur":
		return RoleDriver
	}
	return RolePassenger
}
