package enums

// AdminRole is the role claim carried by admin tokens.
type AdminRole string

const AdminRoleDeveloper AdminRole = "developer"

func (r AdminRole) IsValid() bool {
	return r == AdminRoleDeveloper
}
