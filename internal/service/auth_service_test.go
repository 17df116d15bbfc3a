package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hospital-api/internal/database"
	"hospital-api/internal/metrics"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

const (
	houseUsername = "drhouse"
	housePassword = "correct-horse-battery"
)

type capturingNotifier struct {
	notices []model.ResetNotice
}

func (n *capturingNotifier) NotifyPasswordReset(_ context.Context, notice model.ResetNotice) error {
	n.notices = append(n.notices, notice)
	return nil
}

type authHarness struct {
	svc       *AuthService
	st        *memState
	db        *fakeDB
	clock     *fakeClock
	tokens    *TokenIssuer
	sessions  *SessionManager
	notifier  *capturingNotifier
	metrics   *metrics.Metrics
	auditFail bool
	houseID   int64
}

func newAuthHarness(t *testing.T, restartOnExpiry bool, exposeToken bool) *authHarness {
	t.Helper()

	st := newMemState()
	cardiology := int64(10)
	st.departments[cardiology] = model.Department{ID: cardiology, Name: "Diagnostics"}
	st.staff[1] = model.Staff{ID: 1, FirstName: "Gregory", LastName: "House", Role: model.StaffRoleDoctor,
		DepartmentID: &cardiology, Email: "house@ppth.org", Phone: "555-0101"}
	st.staff[2] = model.Staff{ID: 2, FirstName: "Lisa", LastName: "Cuddy", Role: model.StaffRoleAdministrator,
		Email: "cuddy@ppth.org", Phone: "555-0102"}
	st.staff[3] = model.Staff{ID: 3, FirstName: "James", LastName: "Wilson", Role: model.StaffRoleDoctor,
		Email: "wilson@ppth.org", Phone: "555-0103"}
	st.roles[1] = model.Role{ID: 1, Name: "admin"}
	st.roles[2] = model.Role{ID: 2, Name: "clinician"}

	h := &authHarness{
		st:       st,
		db:       &fakeDB{state: st},
		clock:    &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		notifier: &capturingNotifier{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}

	audit := NewAuditService(h.db, fakeAudit{st: st, failNext: &h.auditFail})
	audit.now = h.clock.Now
	h.sessions = NewSessionManager(h.db, fakeSessions{st: st}, time.Hour, h.metrics)
	h.sessions.now = h.clock.Now
	h.tokens = NewTokenIssuer("test-secret-with-at-least-32-bytes!!", "hospital-api", time.Hour)
	h.tokens.now = h.clock.Now

	h.svc = NewAuthService(AuthDeps{
		DB:          h.db,
		Users:       fakeUsers{st: st},
		Roles:       fakeRoles{st: st},
		Staff:       fakeStaff{st: st},
		Departments: fakeDepartments{st: st},
		Audit:       audit,
		Hasher:      NewPasswordHasher(bcrypt.MinCost),
		Sessions:    h.sessions,
		Tokens:      h.tokens,
		Lockout:     NewLockoutPolicy(5, 30*time.Minute, restartOnExpiry),
		Notifier:    h.notifier,
		Metrics:     h.metrics,
	}, AuthOptions{ResetTokenTTL: time.Hour, ExposeResetToken: exposeToken})
	h.svc.now = h.clock.Now

	roleID := int64(2)
	res, err := h.svc.Register(context.Background(), model.RegisterRequest{
		StaffID: 1, Username: houseUsername, Password: housePassword, DefaultRoleID: &roleID,
	}, model.ClientInfo{IP: "10.0.0.1"})
	require.NoError(t, err)
	h.houseID = res.UserID
	h.st.audit = nil

	return h
}

func (h *authHarness) login(username string, password string) (model.LoginResult, error) {
	return h.svc.Login(context.Background(), model.LoginRequest{Username: username, Password: password},
		model.ClientInfo{IP: "10.0.0.7", UserAgent: "test"})
}

func (h *authHarness) user() model.LoginUser {
	return h.st.users[h.houseID]
}

func (h *authHarness) lastAudit(t *testing.T) model.AuditEntry {
	t.Helper()
	require.NotEmpty(t, h.st.audit)
	return h.st.audit[len(h.st.audit)-1]
}

func requireKind(t *testing.T, err error, kind apierror.Kind) *apierror.APIError {
	t.Helper()
	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected *apierror.APIError, got %v", err)
	assert.Equal(t, kind, apiErr.Kind)
	return apiErr
}

// staleStaffCheck misses an account inserted after the existence check,
// leaving the unique constraint to catch it.
type staleStaffCheck struct{ fakeUsers }

func (staleStaffCheck) ExistsByStaffID(context.Context, database.Querier, int64) (bool, error) {
	return false, nil
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	client := model.ClientInfo{IP: "10.0.0.1"}

	t.Run("creates user role and audit entry together", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		roleID := int64(1)

		res, err := h.svc.Register(ctx, model.RegisterRequest{
			StaffID: 2, Username: "cuddy", Password: "administrator1", DefaultRoleID: &roleID,
		}, client)
		require.NoError(t, err)

		u := h.st.users[res.UserID]
		assert.Equal(t, "cuddy", u.Username)
		assert.True(t, u.IsActive)
		assert.NotEqual(t, "administrator1", u.PasswordHash)
		assert.Len(t, u.Salt, 22)
		assert.Equal(t, []int64{1}, h.st.userRoles[res.UserID])

		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditCreate, entry.Action)
		assert.Equal(t, "users", entry.TableName)
		assert.Equal(t, res.UserID, entry.RecordID)
	})

	t.Run("unknown staff is not found", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, err := h.svc.Register(ctx, model.RegisterRequest{StaffID: 99, Username: "ghost", Password: "password123"}, client)
		requireKind(t, err, apierror.KindNotFound)
	})

	t.Run("duplicate username conflicts regardless of case", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, err := h.svc.Register(ctx, model.RegisterRequest{StaffID: 2, Username: "DrHouse", Password: "password123"}, client)
		requireKind(t, err, apierror.KindConflict)
	})

	t.Run("staff member with an account conflicts", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, err := h.svc.Register(ctx, model.RegisterRequest{StaffID: 1, Username: "house2", Password: "password123"}, client)
		requireKind(t, err, apierror.KindConflict)
	})

	t.Run("staff account created concurrently conflicts", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		h.svc.users = staleStaffCheck{fakeUsers{st: h.st}}

		_, err := h.svc.Register(ctx, model.RegisterRequest{StaffID: 1, Username: "house2", Password: "password123"}, client)
		apiErr := requireKind(t, err, apierror.KindConflict)
		assert.Equal(t, "staff member already has a user account", apiErr.Message)
		assert.Equal(t, "1", apiErr.Details)
		assert.Len(t, h.st.users, 1)
	})

	t.Run("unknown role leaves no user behind", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		roleID := int64(42)
		_, err := h.svc.Register(ctx, model.RegisterRequest{
			StaffID: 3, Username: "wilson", Password: "password123", DefaultRoleID: &roleID,
		}, client)
		requireKind(t, err, apierror.KindNotFound)
		assert.Len(t, h.st.users, 1)
	})

	t.Run("failed audit rolls back the user and role", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		roleID := int64(2)
		h.auditFail = true

		_, err := h.svc.Register(ctx, model.RegisterRequest{
			StaffID: 3, Username: "wilson", Password: "password123", DefaultRoleID: &roleID,
		}, client)
		require.Error(t, err)
		assert.Len(t, h.st.users, 1)
		assert.Len(t, h.st.userRoles, 1)
	})

	t.Run("missing fields and weak password", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		_, err := h.svc.Register(ctx, model.RegisterRequest{Username: "x", Password: "password123"}, client)
		assert.Equal(t, "staffId", requireKind(t, err, apierror.KindValidation).Details)

		_, err = h.svc.Register(ctx, model.RegisterRequest{StaffID: 3, Password: "password123"}, client)
		assert.Equal(t, "username", requireKind(t, err, apierror.KindValidation).Details)

		_, err = h.svc.Register(ctx, model.RegisterRequest{StaffID: 3, Username: "wilson", Password: "short"}, client)
		requireKind(t, err, apierror.KindValidation)

		_, err = h.svc.Register(ctx, model.RegisterRequest{StaffID: 3, Username: "wilson", Password: strings.Repeat("x", 73)}, client)
		requireKind(t, err, apierror.KindValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success issues a token bound to a live session", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		res, err := h.login("DRHOUSE", housePassword)
		require.NoError(t, err)

		claims, err := h.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, h.houseID, claims.UserID)
		assert.Equal(t, int64(1), claims.StaffID)
		assert.Equal(t, "Gregory House", claims.FullName)
		assert.Equal(t, model.StaffRoleDoctor, claims.StaffRole)
		assert.Equal(t, []string{"clinician"}, claims.UserRoles)

		session, err := h.sessions.Validate(context.Background(), claims.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.7", session.IPAddress)

		assert.Equal(t, "Gregory House", res.User.FullName)
		assert.NotNil(t, h.user().LastLogin)

		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditLogin, entry.Action)
		assert.Equal(t, "sessions", entry.TableName)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginSuccess)))
	})

	t.Run("unknown user is audited without a user id", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		_, err := h.login("nobody", "whatever123")
		apiErr := requireKind(t, err, apierror.KindUnauthorized)
		assert.Equal(t, "Invalid username or password", apiErr.Message)

		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditFailedLogin, entry.Action)
		assert.Nil(t, entry.UserID)
		assert.Equal(t, map[string]any{"username": "nobody", "ipAddress": "10.0.0.7"}, entry.OldValue)
	})

	t.Run("bad password is audited and counted", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		_, err := h.login(houseUsername, "wrong-password")
		requireKind(t, err, apierror.KindUnauthorized)

		assert.Equal(t, 1, h.user().FailedLoginAttempts)
		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditFailedLogin, entry.Action)
		require.NotNil(t, entry.UserID)
		assert.Equal(t, h.houseID, *entry.UserID)
		assert.Empty(t, h.st.sessions)
	})

	t.Run("inactive account is forbidden", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		u := h.user()
		u.IsActive = false
		h.st.users[h.houseID] = u

		_, err := h.login(houseUsername, housePassword)
		requireKind(t, err, apierror.KindForbidden)
		assert.Empty(t, h.st.sessions)
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		for range 3 {
			_, _ = h.login(houseUsername, "wrong-password")
		}
		require.Equal(t, 3, h.user().FailedLoginAttempts)

		_, err := h.login(houseUsername, housePassword)
		require.NoError(t, err)
		assert.Equal(t, 0, h.user().FailedLoginAttempts)
		assert.False(t, h.user().AccountLocked)
	})

	t.Run("missing fields", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, err := h.login("", housePassword)
		requireKind(t, err, apierror.KindValidation)
		_, err = h.login(houseUsername, "")
		requireKind(t, err, apierror.KindValidation)
		assert.Empty(t, h.st.audit)
	})
}

func TestAuthService_Lockout(t *testing.T) {
	t.Run("fifth failure locks and the lock holds even for the right password", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		for i := 1; i <= 4; i++ {
			_, err := h.login(houseUsername, "wrong-password")
			requireKind(t, err, apierror.KindUnauthorized)
		}

		_, err := h.login(houseUsername, "wrong-password")
		apiErr := requireKind(t, err, apierror.KindAccountLocked)
		until := h.clock.Now().Add(30 * time.Minute)
		assert.Equal(t, until.Format(time.RFC3339), apiErr.Details)
		assert.True(t, h.user().AccountLocked)

		h.clock.Advance(10 * time.Minute)
		_, err = h.login(houseUsername, housePassword)
		requireKind(t, err, apierror.KindAccountLocked)
		assert.Empty(t, h.st.sessions)
		assert.Equal(t, 5, h.user().FailedLoginAttempts)

		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginLockoutTrips)))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.LoginAttemptsTotal.WithLabelValues(metrics.LoginLocked)))
	})

	t.Run("correct password after expiry clears the lock", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		for range 5 {
			_, _ = h.login(houseUsername, "wrong-password")
		}

		h.clock.Advance(31 * time.Minute)
		_, err := h.login(houseUsername, housePassword)
		require.NoError(t, err)
		assert.Equal(t, 0, h.user().FailedLoginAttempts)
		assert.False(t, h.user().AccountLocked)
		assert.Nil(t, h.user().LockedUntil)
	})

	t.Run("failure after expiry relocks immediately", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		for range 5 {
			_, _ = h.login(houseUsername, "wrong-password")
		}

		h.clock.Advance(31 * time.Minute)
		_, err := h.login(houseUsername, "wrong-password")
		requireKind(t, err, apierror.KindAccountLocked)
		assert.Equal(t, 6, h.user().FailedLoginAttempts)
	})

	t.Run("restart on expiry counts from one", func(t *testing.T) {
		h := newAuthHarness(t, true, false)
		for range 5 {
			_, _ = h.login(houseUsername, "wrong-password")
		}

		h.clock.Advance(31 * time.Minute)
		_, err := h.login(houseUsername, "wrong-password")
		requireKind(t, err, apierror.KindUnauthorized)
		assert.Equal(t, 1, h.user().FailedLoginAttempts)
		assert.False(t, h.user().AccountLocked)
	})
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	h := newAuthHarness(t, false, false)
	ctx := context.Background()

	res, err := h.login(houseUsername, housePassword)
	require.NoError(t, err)
	claims, err := h.tokens.Verify(res.Token)
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(ctx, claims, model.ClientInfo{IP: "10.0.0.7"}))

	_, err = h.sessions.Validate(ctx, claims.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	entry := h.lastAudit(t)
	assert.Equal(t, model.AuditLogout, entry.Action)
	assert.Equal(t, map[string]any{"sessionId": claims.SessionID}, entry.NewValue)

	// A second logout with the same token still answers cleanly.
	assert.NoError(t, h.svc.Logout(ctx, claims, model.ClientInfo{}))
}

func TestAuthService_Me(t *testing.T) {
	h := newAuthHarness(t, false, false)

	profile, err := h.svc.Me(context.Background(), h.houseID)
	require.NoError(t, err)
	assert.Equal(t, houseUsername, profile.Username)
	assert.Equal(t, "house@ppth.org", profile.Email)
	assert.Equal(t, []model.Role{{ID: 2, Name: "clinician"}}, profile.Roles)
	require.NotNil(t, profile.Department)
	assert.Equal(t, "Diagnostics", profile.Department.Name)

	_, err = h.svc.Me(context.Background(), 999)
	requireKind(t, err, apierror.KindNotFound)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	client := model.ClientInfo{IP: "10.0.0.7"}

	t.Run("wrong current password", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		claims := model.AuthClaims{UserID: h.houseID}

		err := h.svc.ChangePassword(ctx, claims, model.ChangePasswordRequest{
			CurrentPassword: "not-it-at-all", NewPassword: "new-password-1",
		}, client)
		requireKind(t, err, apierror.KindUnauthorized)
	})

	t.Run("new password works and the old one stops working", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		res, err := h.login(houseUsername, housePassword)
		require.NoError(t, err)
		claims, err := h.tokens.Verify(res.Token)
		require.NoError(t, err)

		require.NoError(t, h.svc.ChangePassword(ctx, claims, model.ChangePasswordRequest{
			CurrentPassword: housePassword, NewPassword: "new-password-1",
		}, client))

		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditUpdate, entry.Action)
		assert.Equal(t, map[string]any{"action": "password_change"}, entry.NewValue)

		// The session that changed the password stays valid.
		_, err = h.sessions.Validate(ctx, claims.SessionID)
		assert.NoError(t, err)

		_, err = h.login(houseUsername, housePassword)
		requireKind(t, err, apierror.KindUnauthorized)
		_, err = h.login(houseUsername, "new-password-1")
		assert.NoError(t, err)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	client := model.ClientInfo{IP: "10.0.0.9"}

	t.Run("unknown and known usernames get the same answer", func(t *testing.T) {
		h := newAuthHarness(t, false, false)

		unknownRes, unknownMsg, err := h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: "nobody"}, client)
		require.NoError(t, err)
		knownRes, knownMsg, err := h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: houseUsername}, client)
		require.NoError(t, err)

		assert.Equal(t, unknownMsg, knownMsg)
		assert.Equal(t, unknownRes, knownRes)
		assert.Nil(t, knownRes.Debug)
		require.Len(t, h.notifier.notices, 1)
		assert.Equal(t, "house@ppth.org", h.notifier.notices[0].Email)
	})

	t.Run("only the digest of the token is stored", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, _, err := h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: houseUsername}, client)
		require.NoError(t, err)

		token := h.notifier.notices[0].Token
		stored := h.st.resetTokens[h.houseID]
		assert.NotEqual(t, token, stored.digest)
		assert.Equal(t, digestResetToken(token), stored.digest)
		assert.Equal(t, h.clock.Now().Add(time.Hour), stored.expires)
	})

	t.Run("debug token only when exposed", func(t *testing.T) {
		h := newAuthHarness(t, false, true)
		res, _, err := h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: houseUsername}, client)
		require.NoError(t, err)
		require.NotNil(t, res.Debug)
		assert.Equal(t, h.notifier.notices[0].Token, res.Debug.ResetToken)
	})

	t.Run("reset revokes sessions clears lockout and is single use", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, err := h.login(houseUsername, housePassword)
		require.NoError(t, err)
		_, err = h.login(houseUsername, housePassword)
		require.NoError(t, err)
		for range 5 {
			_, _ = h.login(houseUsername, "wrong-password")
		}
		require.True(t, h.user().AccountLocked)
		require.Len(t, h.st.sessions, 2)

		_, _, err = h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: houseUsername}, client)
		require.NoError(t, err)
		token := h.notifier.notices[0].Token

		require.NoError(t, h.svc.ResetPassword(ctx, model.ResetPasswordRequest{Token: token, NewPassword: "brand-new-pass"}, client))

		assert.Empty(t, h.st.sessions)
		assert.False(t, h.user().AccountLocked)
		assert.Equal(t, 0, h.user().FailedLoginAttempts)
		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditPasswordReset, entry.Action)

		_, err = h.login(houseUsername, "brand-new-pass")
		assert.NoError(t, err)

		err = h.svc.ResetPassword(ctx, model.ResetPasswordRequest{Token: token, NewPassword: "another-pass-1"}, client)
		requireKind(t, err, apierror.KindValidation)
	})

	t.Run("expired token is rejected and audited", func(t *testing.T) {
		h := newAuthHarness(t, false, false)
		_, _, err := h.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Username: houseUsername}, client)
		require.NoError(t, err)
		token := h.notifier.notices[0].Token

		h.clock.Advance(61 * time.Minute)
		err = h.svc.ResetPassword(ctx, model.ResetPasswordRequest{Token: token, NewPassword: "brand-new-pass"}, client)
		apiErr := requireKind(t, err, apierror.KindValidation)
		assert.Equal(t, "Invalid or expired password reset token", apiErr.Message)

		entry := h.lastAudit(t)
		assert.Equal(t, model.AuditPasswordReset, entry.Action)
		assert.Nil(t, entry.UserID)
	})
}
