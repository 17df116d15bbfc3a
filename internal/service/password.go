package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"hospital-api/pkg/apierror"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt digest and its embedded 22-character salt.
func (h *PasswordHasher) Hash(plaintext string) (string, string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), saltOf(string(digest)), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *PasswordHasher) Verify(plaintext string, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// A bcrypt digest is "$2a$" + 2-digit cost + "$" + 22 salt chars + 31 hash chars.
func saltOf(digest string) string {
	const saltStart = 7
	if len(digest) < saltStart+22 {
		return ""
	}
	return digest[saltStart : saltStart+22]
}

func ValidatePasswordPolicy(field string, password string) error {
	if password == "" {
		return apierror.MissingField(field)
	}
	if len(password) < MinPasswordLength {
		return apierror.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLength), field)
	}
	if len(password) > MaxPasswordLength {
		return apierror.Validation(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength), field)
	}
	return nil
}
