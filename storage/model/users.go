package model

import (
	"context"
	"strings"
	"time"
)

// User is a person known to the inventory. Users are provisioned on their
// first successful login and identified by the object id the identity
// provider issued for them.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// AzureOID is the external identity; it never changes after creation
	AzureOID    string `gorm:"column:azure_oid;uniqueIndex;size:64;not null" json:"azure_oid"`
	Email       string `gorm:"size:255" json:"email"`
	DisplayName string `gorm:"size:255" json:"display_name"`
	Department  string `gorm:"size:255" json:"department,omitempty"`
}

// PrimaryKey returns the id of the User
func (u User) PrimaryKey() uint { return u.ID }

// AddUser is the create payload for a User
type AddUser struct {
	AzureOID    string `json:"azure_oid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
}

// Validate checks the payload
func (a AddUser) Validate() error {
	if strings.TrimSpace(a.AzureOID) == "" {
		return ValidationErrorFmt("azure_oid is required")
	}
	return nil
}

// New implements Creatable
func (a AddUser) New() *User {
	return &User{
		AzureOID:    strings.TrimSpace(a.AzureOID),
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Department:  a.Department,
	}
}

// UserUpdate is the partial update of a User. The external identity is
// immutable.
type UserUpdate struct {
	Email       Optional[string] `json:"email"`
	DisplayName Optional[string] `json:"display_name"`
	Department  Optional[string] `json:"department"`
}

// Assignments implements Patch
func (u UserUpdate) Assignments() map[string]any {
	m := make(map[string]any)
	u.Email.assign(m, "email")
	u.DisplayName.assign(m, "display_name")
	u.Department.assign(m, "department")
	return m
}

// UsersStore abstracts access to the local user records
type UsersStore interface {
	ReferenceStore[User, AddUser, UserUpdate]
	// GetByAzureOID returns the user with the passed external identity or a
	// NotFoundError
	GetByAzureOID(ctx context.Context, oid string) (*User, error)
}
