package models

import "time"

// LinkPrecedence marks a contact as the head of its cluster or a member of it.
type LinkPrecedence string

const (
	PrecedencePrimary   LinkPrecedence = "primary"
	PrecedenceSecondary LinkPrecedence = "secondary"
)

// Contact represents a customer contact in the database
type Contact struct {
	ID             int64          `json:"id"`
	PhoneNumber    *string        `json:"phoneNumber,omitempty"`
	Email          *string        `json:"email,omitempty"`
	LinkedID       *int64         `json:"linkedId,omitempty"`
	LinkPrecedence LinkPrecedence `json:"linkPrecedence"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty"`
}

// IsPrimary reports whether the contact heads its cluster.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == PrecedencePrimary
}

// PrimaryID returns the id of the primary this contact belongs to.
func (c *Contact) PrimaryID() int64 {
	if c.IsPrimary() || c.LinkedID == nil {
		return c.ID
	}
	return *c.LinkedID
}

// Older reports whether a is senior to b: earlier CreatedAt, ties broken by
// the lower id.
func Older(a, b *Contact) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// NewContact carries the fields of a contact about to be inserted.
type NewContact struct {
	Email          *string
	PhoneNumber    *string
	LinkedID       *int64
	LinkPrecedence LinkPrecedence
}

// ContactUpdate lists the mutable link fields. Nil fields are left as is.
type ContactUpdate struct {
	LinkedID       *int64
	LinkPrecedence *LinkPrecedence
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
