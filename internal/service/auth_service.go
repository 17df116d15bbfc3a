package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"hospital-api/internal/database"
	"hospital-api/internal/metrics"
	"hospital-api/internal/model"
	"hospital-api/internal/repository"
	"hospital-api/pkg/apierror"
)

const (
	DefaultResetTokenTTL = time.Hour

	forgotPasswordMessage = "If your account exists, a password reset link will be sent to your email"
	invalidCredentials    = "Invalid username or password"
)

type userStore interface {
	FindLoginUser(ctx context.Context, q database.Querier, username string) (model.LoginUser, error)
	FindLoginUserByID(ctx context.Context, q database.Querier, userID int64) (model.LoginUser, error)
	ExistsByUsername(ctx context.Context, q database.Querier, username string) (bool, error)
	ExistsByStaffID(ctx context.Context, q database.Querier, staffID int64) (bool, error)
	Create(ctx context.Context, q database.Querier, u model.User) (int64, error)
	RecordFailedAttempt(ctx context.Context, q database.Querier, userID int64, upd repository.LockoutUpdate) (model.LockState, error)
	RecordSuccessfulLogin(ctx context.Context, q database.Querier, userID int64, now time.Time) error
	UpdatePassword(ctx context.Context, q database.Querier, userID int64, hash string, salt string, now time.Time) error
	SetResetToken(ctx context.Context, q database.Querier, userID int64, digest string, expires time.Time, now time.Time) error
	FindByResetToken(ctx context.Context, q database.Querier, digest string, now time.Time) (model.User, error)
	CompletePasswordReset(ctx context.Context, q database.Querier, userID int64, hash string, salt string, now time.Time) error
}

type roleStore interface {
	FindByID(ctx context.Context, q database.Querier, roleID int64) (model.Role, error)
	Assign(ctx context.Context, q database.Querier, userID int64, roleID int64) error
	ListForUser(ctx context.Context, q database.Querier, userID int64) ([]model.Role, error)
	NamesForUser(ctx context.Context, q database.Querier, userID int64) ([]string, error)
}

type staffLookup interface {
	Exists(ctx context.Context, q database.Querier, id int64) (bool, error)
}

type departmentLookup interface {
	FindByID(ctx context.Context, q database.Querier, id int64) (model.Department, error)
}

type AuthOptions struct {
	ResetTokenTTL time.Duration
	// ExposeResetToken echoes the raw reset token in the forgot-password
	// response. Configuration only allows it in development.
	ExposeResetToken bool
}

type AuthDeps struct {
	DB          Store
	Users       userStore
	Roles       roleStore
	Staff       staffLookup
	Departments departmentLookup
	Audit       *AuditService
	Hasher      *PasswordHasher
	Sessions    *SessionManager
	Tokens      *TokenIssuer
	Lockout     LockoutPolicy
	Notifier    ResetNotifier
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

type AuthService struct {
	db          Store
	users       userStore
	roles       roleStore
	staff       staffLookup
	departments departmentLookup
	audit       *AuditService
	hasher      *PasswordHasher
	sessions    *SessionManager
	tokens      *TokenIssuer
	lockout     LockoutPolicy
	notifier    ResetNotifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
	opts        AuthOptions
	now         clock
}

func NewAuthService(deps AuthDeps, opts AuthOptions) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = DefaultResetTokenTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	return &AuthService{
		db:          deps.DB,
		users:       deps.Users,
		roles:       deps.Roles,
		staff:       deps.Staff,
		departments: deps.Departments,
		audit:       deps.Audit,
		hasher:      deps.Hasher,
		sessions:    deps.Sessions,
		tokens:      deps.Tokens,
		lockout:     deps.Lockout,
		notifier:    notifier,
		metrics:     deps.Metrics,
		logger:      logger,
		opts:        opts,
		now:         systemClock,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, client model.ClientInfo) (model.RegisterResult, error) {
	username := strings.TrimSpace(req.Username)
	if req.StaffID <= 0 {
		return model.RegisterResult{}, apierror.MissingField("staffId")
	}
	if username == "" {
		return model.RegisterResult{}, apierror.MissingField("username")
	}
	if err := ValidatePasswordPolicy("password", req.Password); err != nil {
		return model.RegisterResult{}, err
	}
	if req.DefaultRoleID != nil && *req.DefaultRoleID <= 0 {
		return model.RegisterResult{}, apierror.Validation("defaultRoleId must be a positive id", "defaultRoleId")
	}

	// Hash outside the transaction.
	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.RegisterResult{}, err
	}

	var userID int64
	err = s.db.InTx(ctx, func(q database.Querier) error {
		exists, err := s.staff.Exists(ctx, q, req.StaffID)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("staff member", req.StaffID)
		}

		taken, err := s.users.ExistsByUsername(ctx, q, username)
		if err != nil {
			return err
		}
		if taken {
			return apierror.Conflict("username already exists", username)
		}

		hasAccount, err := s.users.ExistsByStaffID(ctx, q, req.StaffID)
		if err != nil {
			return err
		}
		if hasAccount {
			return apierror.Conflict("staff member already has a user account", strconv.FormatInt(req.StaffID, 10))
		}

		if req.DefaultRoleID != nil {
			if _, err := s.roles.FindByID(ctx, q, *req.DefaultRoleID); err != nil {
				if errors.Is(err, model.ErrRoleNotFound) {
					return notFound("role", *req.DefaultRoleID)
				}
				return err
			}
		}

		now := s.now()
		userID, err = s.users.Create(ctx, q, model.User{
			StaffID:      req.StaffID,
			Username:     username,
			PasswordHash: hash,
			Salt:         salt,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return apierror.Conflict("username already exists", username)
		}
		if errors.Is(err, model.ErrStaffHasAccount) {
			return apierror.Conflict("staff member already has a user account", strconv.FormatInt(req.StaffID, 10))
		}
		if err != nil {
			return err
		}

		newValue := map[string]any{"username": username, "staffId": req.StaffID}
		if req.DefaultRoleID != nil {
			if err := s.roles.Assign(ctx, q, userID, *req.DefaultRoleID); err != nil {
				return err
			}
			newValue["roleId"] = *req.DefaultRoleID
		}

		return s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &userID,
			Action:    model.AuditCreate,
			TableName: "users",
			RecordID:  userID,
			NewValue:  newValue,
			IPAddress: client.IP,
		})
	})
	if err != nil {
		return model.RegisterResult{}, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", userID, "staff_id", req.StaffID)
	return model.RegisterResult{UserID: userID}, nil
}

// Login runs the whole credential check in one transaction. Rejections are
// not transaction errors: their audit entry and lockout counter commit, and
// the rejection is returned after the commit.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, client model.ClientInfo) (model.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.LoginResult{}, apierror.MissingField("username")
	}
	if req.Password == "" {
		return model.LoginResult{}, apierror.MissingField("password")
	}

	var (
		result    model.LoginResult
		rejection error
		outcome   string
	)

	err := s.db.InTx(ctx, func(q database.Querier) error {
		now := s.now()

		user, err := s.users.FindLoginUser(ctx, q, username)
		if errors.Is(err, model.ErrUserNotFound) {
			outcome = metrics.LoginUnknownUser
			rejection = apierror.Unauthorized(invalidCredentials)
			return s.audit.Record(ctx, q, model.AuditEntry{
				Action:    model.AuditFailedLogin,
				TableName: "users",
				OldValue:  map[string]any{"username": username, "ipAddress": client.IP},
				IPAddress: client.IP,
			})
		}
		if err != nil {
			return err
		}

		failed := func(reason string, extra map[string]any) error {
			value := map[string]any{"reason": reason, "ipAddress": client.IP}
			for k, v := range extra {
				value[k] = v
			}
			return s.audit.Record(ctx, q, model.AuditEntry{
				UserID:    &user.ID,
				Action:    model.AuditFailedLogin,
				TableName: "users",
				RecordID:  user.ID,
				OldValue:  value,
				IPAddress: client.IP,
			})
		}

		if !user.IsActive {
			outcome = metrics.LoginInactive
			rejection = apierror.Forbidden("Account is deactivated. Please contact administrator.")
			return failed("inactive", nil)
		}

		if s.lockout.IsLocked(user.User, now) {
			outcome = metrics.LoginLocked
			rejection = lockedError(*user.LockedUntil)
			return failed("locked", nil)
		}

		if !s.hasher.Verify(req.Password, user.PasswordHash) {
			state, err := s.users.RecordFailedAttempt(ctx, q, user.ID, s.lockout.FailureUpdate(now))
			if err != nil {
				return err
			}
			if state.Locked && state.LockedUntil != nil {
				outcome = metrics.LoginLockoutTrips
				rejection = lockedError(*state.LockedUntil)
				s.logger.WarnContext(ctx, "account locked after repeated failed logins",
					"user_id", user.ID, "attempts", state.FailedAttempts, "locked_until", state.LockedUntil)
			} else {
				outcome = metrics.LoginBadPassword
				rejection = apierror.Unauthorized(invalidCredentials)
			}
			return failed("bad_password", map[string]any{"attempts": state.FailedAttempts})
		}

		if err := s.users.RecordSuccessfulLogin(ctx, q, user.ID, now); err != nil {
			return err
		}

		roles, err := s.roles.NamesForUser(ctx, q, user.ID)
		if err != nil {
			return err
		}

		session, err := s.sessions.Create(ctx, q, user.ID, client)
		if err != nil {
			return err
		}

		token, expiresAt, err := s.tokens.Issue(model.AuthClaims{
			UserID:    user.ID,
			StaffID:   user.StaffID,
			Username:  user.Username,
			FullName:  user.FullName(),
			StaffRole: user.StaffRole,
			UserRoles: roles,
			SessionID: session.ID,
		})
		if err != nil {
			return err
		}

		if err := s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &user.ID,
			Action:    model.AuditLogin,
			TableName: "sessions",
			RecordID:  user.ID,
			NewValue:  map[string]any{"sessionId": session.ID, "ipAddress": client.IP},
			IPAddress: client.IP,
		}); err != nil {
			return err
		}

		outcome = metrics.LoginSuccess
		result = model.LoginResult{
			Token:     token,
			ExpiresAt: expiresAt,
			User: model.LoginProfile{
				UserID:    user.ID,
				StaffID:   user.StaffID,
				Username:  user.Username,
				FullName:  user.FullName(),
				StaffRole: user.StaffRole,
				Roles:     roles,
			},
		}
		return nil
	})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("login: %w", err)
	}

	s.metrics.LoginAttempt(outcome)
	if rejection != nil {
		return model.LoginResult{}, rejection
	}
	return result, nil
}

func lockedError(until time.Time) error {
	return apierror.New(apierror.KindAccountLocked,
		"Account is locked due to too many failed login attempts",
		until.UTC().Format(time.RFC3339))
}

// Logout revokes the session the token was issued for. A session that has
// already disappeared is not an error.
func (s *AuthService) Logout(ctx context.Context, claims model.AuthClaims, client model.ClientInfo) error {
	return s.db.InTx(ctx, func(q database.Querier) error {
		if err := s.sessions.Revoke(ctx, q, claims.SessionID); err != nil && !IsSessionNotFound(err) {
			return err
		}
		return s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &claims.UserID,
			Action:    model.AuditLogout,
			TableName: "sessions",
			RecordID:  claims.UserID,
			NewValue:  map[string]any{"sessionId": claims.SessionID},
			IPAddress: client.IP,
		})
	})
}

func (s *AuthService) Me(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.users.FindLoginUserByID(ctx, s.db, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Profile{}, notFound("user", userID)
	}
	if err != nil {
		return model.Profile{}, err
	}

	roles, err := s.roles.ListForUser(ctx, s.db, userID)
	if err != nil {
		return model.Profile{}, err
	}

	profile := model.Profile{
		UserID:    user.ID,
		StaffID:   user.StaffID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		FullName:  user.FullName(),
		Email:     user.Email,
		Phone:     user.Phone,
		StaffRole: user.StaffRole,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		Roles:     roles,
	}

	if user.DepartmentID != nil {
		dept, err := s.departments.FindByID(ctx, s.db, *user.DepartmentID)
		switch {
		case err == nil:
			profile.Department = &dept
		case !errors.Is(err, model.ErrNotFound):
			return model.Profile{}, err
		}
	}

	return profile, nil
}

// ChangePassword leaves the caller's other sessions alone.
func (s *AuthService) ChangePassword(ctx context.Context, claims model.AuthClaims, req model.ChangePasswordRequest, client model.ClientInfo) error {
	if req.CurrentPassword == "" {
		return apierror.MissingField("currentPassword")
	}
	if err := ValidatePasswordPolicy("newPassword", req.NewPassword); err != nil {
		return err
	}

	var rejection error
	err := s.db.InTx(ctx, func(q database.Querier) error {
		user, err := s.users.FindLoginUserByID(ctx, q, claims.UserID)
		if errors.Is(err, model.ErrUserNotFound) {
			return notFound("user", claims.UserID)
		}
		if err != nil {
			return err
		}

		if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
			rejection = apierror.Unauthorized("Current password is incorrect")
			return nil
		}

		hash, salt, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return err
		}
		if err := s.users.UpdatePassword(ctx, q, user.ID, hash, salt, s.now()); err != nil {
			return err
		}

		return s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &user.ID,
			Action:    model.AuditUpdate,
			TableName: "users",
			RecordID:  user.ID,
			NewValue:  map[string]any{"action": "password_change"},
			IPAddress: client.IP,
		})
	})
	if err != nil {
		return err
	}
	return rejection
}

// ForgotPassword answers identically whether or not the username exists.
func (s *AuthService) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest, client model.ClientInfo) (model.ForgotPasswordResult, string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.ForgotPasswordResult{}, "", apierror.MissingField("username")
	}

	var notice *model.ResetNotice
	err := s.db.InTx(ctx, func(q database.Querier) error {
		user, err := s.users.FindLoginUser(ctx, q, username)
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		token, digest, err := newResetToken()
		if err != nil {
			return err
		}

		now := s.now()
		expires := now.Add(s.opts.ResetTokenTTL)
		if err := s.users.SetResetToken(ctx, q, user.ID, digest, expires, now); err != nil {
			return err
		}

		if err := s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &user.ID,
			Action:    model.AuditPasswordReset,
			TableName: "users",
			RecordID:  user.ID,
			NewValue:  map[string]any{"action": "reset_requested"},
			IPAddress: client.IP,
		}); err != nil {
			return err
		}

		notice = &model.ResetNotice{
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Token:     token,
			ExpiresAt: expires,
		}
		return nil
	})
	if err != nil {
		return model.ForgotPasswordResult{}, "", err
	}

	var result model.ForgotPasswordResult
	if notice != nil {
		s.metrics.PasswordReset("requested")
		if err := s.notifier.NotifyPasswordReset(ctx, *notice); err != nil {
			s.logger.ErrorContext(ctx, "deliver password reset notice", "user_id", notice.UserID, "error", err)
		}
		if s.opts.ExposeResetToken {
			result.Debug = &model.ResetDebug{ResetToken: notice.Token, Email: notice.Email}
		}
	}
	return result, forgotPasswordMessage, nil
}

// ResetPassword consumes a reset token. On success every session of the
// user is revoked and all lockout state is cleared, atomically.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest, client model.ClientInfo) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return apierror.MissingField("token")
	}
	if err := ValidatePasswordPolicy("newPassword", req.NewPassword); err != nil {
		return err
	}

	hash, salt, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	var rejection error
	err = s.db.InTx(ctx, func(q database.Querier) error {
		now := s.now()

		user, err := s.users.FindByResetToken(ctx, q, digestResetToken(token), now)
		if errors.Is(err, model.ErrResetTokenNotFound) {
			rejection = apierror.Validation("Invalid or expired password reset token", "token")
			return s.audit.Record(ctx, q, model.AuditEntry{
				Action:    model.AuditPasswordReset,
				TableName: "users",
				NewValue:  map[string]any{"action": "reset_rejected"},
				IPAddress: client.IP,
			})
		}
		if err != nil {
			return err
		}

		if err := s.users.CompletePasswordReset(ctx, q, user.ID, hash, salt, now); err != nil {
			return err
		}

		revoked, err := s.sessions.RevokeAll(ctx, q, user.ID)
		if err != nil {
			return err
		}

		return s.audit.Record(ctx, q, model.AuditEntry{
			UserID:    &user.ID,
			Action:    model.AuditPasswordReset,
			TableName: "users",
			RecordID:  user.ID,
			NewValue:  map[string]any{"action": "reset_completed", "revokedSessions": revoked},
			IPAddress: client.IP,
		})
	})
	if err != nil {
		return err
	}
	if rejection != nil {
		return rejection
	}

	s.metrics.PasswordReset("completed")
	return nil
}

// newResetToken returns a random token for the user and the digest that is
// stored in its place.
func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)
	return token, digestResetToken(token), nil
}

func digestResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
