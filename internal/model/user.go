package model

import "time"

type User struct {
	ID                  int64      `json:"userId"`
	StaffID             int64      `json:"staffId"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	Salt                string     `json:"-"`
	IsActive            bool       `json:"isActive"`
	FailedLoginAttempts int        `json:"-"`
	AccountLocked       bool       `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// LoginUser is a user joined with the staff row it belongs to.
type LoginUser struct {
	User
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	StaffRole    StaffRole `json:"staffRole"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DepartmentID *int64    `json:"departmentId,omitempty"`
}

func (u LoginUser) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserAccount is the administrative view of a user.
type UserAccount struct {
	UserID        int64      `json:"userId"`
	StaffID       int64      `json:"staffId"`
	Username      string     `json:"username"`
	FullName      string     `json:"fullName"`
	Email         string     `json:"email"`
	StaffRole     StaffRole  `json:"staffRole"`
	IsActive      bool       `json:"isActive"`
	AccountLocked bool       `json:"accountLocked"`
	LockedUntil   *time.Time `json:"lockedUntil,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	Roles         []string   `json:"roles"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UpdateUserRequest changes activation and role membership. A nil field is
// left alone; an empty RoleIDs removes every role.
type UpdateUserRequest struct {
	IsActive *bool   `json:"isActive"`
	RoleIDs  []int64 `json:"roleIds"`
}

// LockState is the lockout part of a user row after a failed attempt.
type LockState struct {
	FailedAttempts int
	Locked         bool
	LockedUntil    *time.Time
}

type Session struct {
	ID           string    `json:"sessionId"`
	UserID       int64     `json:"userId"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	LastActivity time.Time `json:"lastActivity"`
}

type Role struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// AuthClaims is what a verified bearer token asserts about its holder.
type AuthClaims struct {
	UserID    int64     `json:"userId"`
	StaffID   int64     `json:"staffId"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	StaffRole StaffRole `json:"staffRole"`
	UserRoles []string  `json:"userRoles"`
	SessionID string    `json:"sessionId"`
}

type LoginProfile struct {
	UserID    int64     `json:"userId"`
	StaffID   int64     `json:"staffId"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	StaffRole StaffRole `json:"staffRole"`
	Roles     []string  `json:"roles"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      LoginProfile `json:"user"`
}

type Profile struct {
	UserID     int64       `json:"userId"`
	StaffID    int64       `json:"staffId"`
	Username   string      `json:"username"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	FullName   string      `json:"fullName"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	StaffRole  StaffRole   `json:"staffRole"`
	IsActive   bool        `json:"isActive"`
	LastLogin  *time.Time  `json:"lastLogin"`
	Roles      []Role      `json:"roles"`
	Department *Department `json:"department"`
}

// ResetNotice is handed to the notification channel when a reset is requested.
type ResetNotice struct {
	UserID    int64
	Username  string
	Email     string
	Token     string
	ExpiresAt time.Time
}

type ForgotPasswordResult struct {
	Debug *ResetDebug `json:"debug,omitempty"`
}

// ResetDebug is only ever populated in development mode.
type ResetDebug struct {
	ResetToken string `json:"resetToken"`
	Email      string `json:"email"`
}

type RegisterResult struct {
	UserID int64 `json:"userId"`
}
