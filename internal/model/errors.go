package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrStaffHasAccount   = errors.New("staff member already has a user account")

	// Session and token related errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrResetTokenNotFound = errors.New("password reset token not found")

	// Lookup errors for referenced rows
	ErrStaffNotFound = errors.New("staff member not found")
	ErrRoleNotFound  = errors.New("role not found")
	ErrNotFound      = errors.New("record not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
