package model

type RegisterRequest struct {
	StaffID       int64  `json:"staffId"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	DefaultRoleID *int64 `json:"defaultRoleId"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ClientInfo identifies where an auth request came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Actor is the authenticated caller a change is attributed to.
type Actor struct {
	UserID int64
	IP     string
}
