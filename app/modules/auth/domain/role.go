package authdomain

// Role represents a user's role for authorization purposes.
type Role string

const (
	// RoleMember belongs to one or more detachments and sees their places.
	RoleMember   Role = "member"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleMember:   1,
	RoleReviewer: 2,
	RoleAdmin:    3,
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything other grants.
func (r Role) AtLeast(other Role) bool {
	return r.IsValid() && roleRank[r] >= roleRank[other]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
