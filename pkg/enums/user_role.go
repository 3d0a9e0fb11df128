package enums

// UserRole gates access to the admin surface.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleAdmin    UserRole = "admin"
)

var userRoles = []UserRole{UserRoleCustomer, UserRoleAdmin}

func (v UserRole) String() string { return string(v) }
func (v UserRole) IsValid() bool  { return isOneOf(v, userRoles) }

func ParseUserRole(value string) (UserRole, error) {
	return parseOneOf("user role", value, userRoles)
}
