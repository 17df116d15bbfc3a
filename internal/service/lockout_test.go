package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hospital-api/internal/model"
)

func TestLockoutPolicy(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	p := NewLockoutPolicy(0, 0, false)

	assert.Equal(t, DefaultMaxLoginAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultLockoutDuration, p.Duration)

	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, p.IsLocked(model.User{}, now))
	assert.True(t, p.IsLocked(model.User{AccountLocked: true, LockedUntil: &future}, now))
	assert.False(t, p.IsLocked(model.User{AccountLocked: true, LockedUntil: &past}, now))
	assert.False(t, p.IsLocked(model.User{AccountLocked: true, LockedUntil: &now}, now))
	assert.False(t, p.IsLocked(model.User{AccountLocked: false, LockedUntil: &future}, now))

	upd := NewLockoutPolicy(3, time.Hour, true).FailureUpdate(now)
	assert.Equal(t, now, upd.Now)
	assert.Equal(t, 3, upd.MaxAttempts)
	assert.Equal(t, now.Add(time.Hour), upd.LockUntil)
	assert.True(t, upd.RestartOnExpiry)
}
