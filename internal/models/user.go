package models

import (
	"fmt"
	"strings"
)

// UserID identifies the acting user. It is passed explicitly to every task operation.
type UserID string

// User is the account a task belongs to.
type User struct {
	base
	email string
	name  string
}

var _ Model = (*User)(nil)

// NewUser creates a [User] that has not been persisted yet.
func NewUser(sequence int, email, name string) *User {
	return &User{base: newBase(sequence), email: strings.TrimSpace(email), name: strings.TrimSpace(name)}
}

func (u *User) Email() string { return u.email }
func (u *User) Name() string  { return u.name }

// UserID returns the identifier tasks reference as their owner.
func (u *User) UserID() UserID { return UserID(u.id) }

func (u *User) SetName(name string) { u.name = strings.TrimSpace(name) }

// Validate requires an ID and a plausible email address.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user ID is required")
	}
	if u.email == "" {
		return fmt.Errorf("user email is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("user email %q is not an email address", u.email)
	}
	return nil
}
