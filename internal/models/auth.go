package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the caller roles issued by the platform auth service.
type UserRole string

const (
	RoleParent UserRole = "PARENT"
	RoleAdmin  UserRole = "ADMIN"
)

// JWTClaims is the token payload issued by the remote auth service. This API
// never issues tokens; it only validates them against the shared secret and
// scopes report access to the listed child ids.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	Role     UserRole `json:"role"`
	ChildIDs []string `json:"child_ids"`
	jwt.RegisteredClaims
}

// CanAccessChild reports whether the claims grant access to the child.
func (c *JWTClaims) CanAccessChild(childID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	for _, id := range c.ChildIDs {
		if id == childID {
			return true
		}
	}
	return false
}
