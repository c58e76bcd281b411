package enums

import "fmt"

// PrincipalRole ranks the actors that purchase or resell products.
type PrincipalRole string

const (
	RoleGuest       PrincipalRole = "guest"
	RoleUser        PrincipalRole = "user"
	RoleAgent       PrincipalRole = "agent"
	RoleDealer      PrincipalRole = "dealer"
	RoleSuperDealer PrincipalRole = "super_dealer"
	RoleMaster      PrincipalRole = "master"
	RoleAdmin       PrincipalRole = "admin"
)

var validPrincipalRoles = []PrincipalRole{
	RoleGuest,
	RoleUser,
	RoleAgent,
	RoleDealer,
	RoleSuperDealer,
	RoleMaster,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r PrincipalRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PrincipalRole.
func (r PrincipalRole) IsValid() bool {
	for _, candidate := range validPrincipalRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsReseller reports whether the role participates in tiered pricing and
// commission earning. Guests and plain users buy at the public price.
func (r PrincipalRole) IsReseller() bool {
	switch r {
	case RoleAgent, RoleDealer, RoleSuperDealer, RoleMaster:
		return true
	default:
		return false
	}
}

// ParsePrincipalRole converts raw input into a PrincipalRole.
func ParsePrincipalRole(value string) (PrincipalRole, error) {
	for _, candidate := range validPrincipalRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid principal role %q", value)
}
