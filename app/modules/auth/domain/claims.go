package authdomain

import (
	"slices"
	"time"
)

// Claims represents the domain model for authentication claims.
type Claims struct {
	UserID      string
	Role        Role
	Detachments []int64
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsMemberOf reports whether the user belongs to the detachment.
func (c *Claims) IsMemberOf(detachmentID int64) bool {
	return slices.Contains(c.Detachments, detachmentID)
}

// CanSee reports whether the user may read data of the detachment. Reviewers
// and admins see every detachment.
func (c *Claims) CanSee(detachmentID int64) bool {
	return c.Role.AtLeast(RoleReviewer) || c.IsMemberOf(detachmentID)
}
