// Package models contains the data structures used throughout the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleEditor  = "editor"
	RoleViewer  = "viewer"
	RoleDisplay = "display"
)

// User represents an account in the application.
type User struct {
	// ID is the unique identifier for the user.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// Username is the user's chosen username.
	Username string `json:"username" bson:"username" validate:"required,min=3,max=30,username"`

	// Email is the user's email address.
	Email string `json:"email" bson:"email" validate:"required,email"`

	// Password is the user's hashed password.
	Password string `json:"-" bson:"password"`

	// Roles contains the user's roles.
	Roles []string `json:"roles" bson:"roles"`

	// IsActive indicates whether the user's account is active.
	IsActive bool `json:"isActive" bson:"isActive"`

	// LastLogin is the time of the user's last login.
	LastLogin time.Time `json:"lastLogin" bson:"lastLogin"`

	// ObjectTimes contains timestamps for this user.
	ObjectTimes
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the most privileged role of the user for room
// placement, falling back to viewer.
func (u *User) PrimaryRole() string {
	return PrimaryRoleOf(u.Roles)
}

// PrimaryRoleOf returns the most privileged role in the slice, falling
// back to viewer.
func PrimaryRoleOf(roles []string) string {
	for _, role := range []string{RoleAdmin, RoleEditor, RoleDisplay} {
		for _, r := range roles {
			if r == role {
				return role
			}
		}
	}
	return RoleViewer
}

// PublicUser represents a subset of user information that is safe to share.
type PublicUser struct {
	ID       bson.ObjectID `json:"id"`
	Username string        `json:"username"`
	Roles    []string      `json:"roles"`
	Online   bool          `json:"online"`
}

// ToPublicUser converts a User to a PublicUser.
func (u *User) ToPublicUser() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Roles:    u.Roles,
	}
}

// PersonalUser represents the full account view returned to its owner.
type PersonalUser struct {
	ID        bson.ObjectID `json:"id"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Roles     []string      `json:"roles"`
	IsActive  bool          `json:"isActive"`
	LastLogin time.Time     `json:"lastLogin"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ToPersonalUser converts a User to a PersonalUser.
func (u *User) ToPersonalUser() PersonalUser {
	return PersonalUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Roles:     u.Roles,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// UserRegisterRequest represents the data needed to register a new user.
type UserRegisterRequest struct {
	// Username is the user's chosen username.
	Username string `json:"username" validate:"required,min=3,max=30,username"`

	// Email is the user's email address.
	Email string `json:"email" validate:"required,email"`

	// Password is the user's password.
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

// UserLoginRequest represents the data needed to log in a user.
type UserLoginRequest struct {
	// Email is the user's email address.
	Email string `json:"email" validate:"required,email"`

	// Password is the user's password.
	Password string `json:"password" validate:"required"`
}

// UserUpdateRequest represents the data that can be updated on an account.
type UserUpdateRequest struct {
	// Username is the user's new username, if changing.
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=30,username"`

	// Email is the user's new email address, if changing.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserPasswordChangeRequest represents the data needed to change a password.
type UserPasswordChangeRequest struct {
	// CurrentPassword is the user's current password.
	CurrentPassword string `json:"currentPassword" validate:"required"`

	// NewPassword is the user's new password.
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72,password"`
}
