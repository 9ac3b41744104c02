package constants

// Role carried in admin tokens.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

func (r Role) String() string { return string(r) }

// CanTriggerSync reports whether the role may start or cancel a sync.
func (r Role) CanTriggerSync() bool {
	return r == RoleAdmin || r == RoleOperator
}
