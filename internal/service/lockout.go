package service

import (
	"time"

	"hospital-api/internal/model"
	"hospital-api/internal/repository"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// LockoutPolicy decides when repeated failed logins lock an account.
//
// An expired lock is not cleared proactively: the stored counter stays at or
// above MaxAttempts, so the next failure locks again immediately unless
// RestartOnExpiry is set.
type LockoutPolicy struct {
	MaxAttempts     int
	Duration        time.Duration
	RestartOnExpiry bool
}

func NewLockoutPolicy(maxAttempts int, duration time.Duration, restartOnExpiry bool) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, Duration: duration, RestartOnExpiry: restartOnExpiry}
}

// IsLocked reports whether a login must be refused before the password is checked.
func (p LockoutPolicy) IsLocked(u model.User, now time.Time) bool {
	return u.AccountLocked && u.LockedUntil != nil && u.LockedUntil.After(now)
}

func (p LockoutPolicy) FailureUpdate(now time.Time) repository.LockoutUpdate {
	return repository.LockoutUpdate{
		Now:             now,
		MaxAttempts:     p.MaxAttempts,
		LockUntil:       now.Add(p.Duration),
		RestartOnExpiry: p.RestartOnExpiry,
	}
}
