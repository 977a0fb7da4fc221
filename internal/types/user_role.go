package types

// UserRole is the product role attached to a session. Billing endpoints are
// gated to admin and office roles.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleOffice UserRole = "office"
	UserRoleField  UserRole = "field"
)

// CanViewBilling reports whether the role may read billing state.
func (r UserRole) CanViewBilling() bool {
	return r == UserRoleAdmin || r == UserRoleOffice
}
