package models

import "github.com/golang-jwt/jwt/v5"

// Role is the RBAC role carried in session-token metadata.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Known reports whether the role is one of the three recognised values.
// There is deliberately no fallback role: an unknown or absent role claim
// is treated as unauthorized everywhere downstream.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// SessionClaims is the payload of the identity provider's session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
