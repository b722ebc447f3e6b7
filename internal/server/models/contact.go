package models

import "time"

// Contact belongs to exactly one user; OwnerID never changes after creation.
type Contact struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Favorite  bool
	CreatedAt time.Time
}

// ContactPatch carries a partial update. Nil fields are left untouched.
type ContactPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

// Empty reports whether the patch would change nothing.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Favorite == nil
}

// ContactFilter narrows and pages a contact listing.
type ContactFilter struct {
	Favorite *bool
	Limit    int
	Offset   int
}
