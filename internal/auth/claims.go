package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
)

// UserClaims is what handlers know about the caller.
type UserClaims interface {
	UserID() string
	Role() constants.Role
	Source() string
	HasPermission(action string) bool
}

// Actions checked through HasPermission.
const (
	ActionTriggerSync = "sync:trigger"
	ActionReadSync    = "sync:read"
)

// AdminClaims are carried by the HS256 tokens of the admin API.
type AdminClaims struct {
	jwt.RegisteredClaims
	RoleValue constants.Role `json:"role"`
}

func (c *AdminClaims) UserID() string       { return c.Subject }
func (c *AdminClaims) Role() constants.Role { return c.RoleValue }
func (c *AdminClaims) Source() string       { return "JWT" }

func (c *AdminClaims) HasPermission(action string) bool {
	switch action {
	case ActionTriggerSync:
		return c.RoleValue.CanTriggerSync()
	case ActionReadSync:
		return c.RoleValue != ""
	}
	return false
}
