package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/internal/repository"
)

var errNoSQL = errors.New("fake store runs no SQL")

type resetToken struct {
	digest  string
	expires time.Time
}

// memState is the whole in-memory database behind the fake repositories.
type memState struct {
	users       map[int64]model.LoginUser
	resetTokens map[int64]resetToken
	nextUserID  int64
	staff       map[int64]model.Staff
	departments map[int64]model.Department
	roles       map[int64]model.Role
	userRoles   map[int64][]int64
	sessions    map[string]model.Session
	audit       []model.AuditEntry
}

func newMemState() *memState {
	return &memState{
		users:       map[int64]model.LoginUser{},
		resetTokens: map[int64]resetToken{},
		staff:       map[int64]model.Staff{},
		departments: map[int64]model.Department{},
		roles:       map[int64]model.Role{},
		userRoles:   map[int64][]int64{},
		sessions:    map[string]model.Session{},
	}
}

func (s *memState) clone() memState {
	roles := make(map[int64][]int64, len(s.userRoles))
	for k, v := range s.userRoles {
		roles[k] = slices.Clone(v)
	}
	return memState{
		users:       maps.Clone(s.users),
		resetTokens: maps.Clone(s.resetTokens),
		nextUserID:  s.nextUserID,
		staff:       maps.Clone(s.staff),
		departments: maps.Clone(s.departments),
		roles:       maps.Clone(s.roles),
		userRoles:   roles,
		sessions:    maps.Clone(s.sessions),
		audit:       slices.Clone(s.audit),
	}
}

type errRow struct{}

func (errRow) Scan(...any) error { return errNoSQL }

// fakeDB satisfies Store. InTx restores the snapshot taken before fn when fn
// fails, like a rollback.
type fakeDB struct {
	state *memState
	txs   int
}

func (db *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoSQL
}

func (db *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errNoSQL
}

func (db *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{}
}

func (db *fakeDB) InTx(_ context.Context, fn func(q database.Querier) error) error {
	db.txs++
	snapshot := db.state.clone()
	if err := fn(db); err != nil {
		*db.state = snapshot
		return err
	}
	return nil
}

type fakeUsers struct{ st *memState }

func (f fakeUsers) byName(username string) (model.LoginUser, bool) {
	for _, u := range f.st.users {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return u, true
		}
	}
	return model.LoginUser{}, false
}

func (f fakeUsers) FindLoginUser(_ context.Context, _ database.Querier, username string) (model.LoginUser, error) {
	u, ok := f.byName(username)
	if !ok {
		return model.LoginUser{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) FindLoginUserByID(_ context.Context, _ database.Querier, userID int64) (model.LoginUser, error) {
	u, ok := f.st.users[userID]
	if !ok {
		return model.LoginUser{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) ExistsByUsername(_ context.Context, _ database.Querier, username string) (bool, error) {
	_, ok := f.byName(username)
	return ok, nil
}

func (f fakeUsers) ExistsByStaffID(_ context.Context, _ database.Querier, staffID int64) (bool, error) {
	for _, u := range f.st.users {
		if u.StaffID == staffID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) Create(_ context.Context, _ database.Querier, u model.User) (int64, error) {
	if _, ok := f.byName(u.Username); ok {
		return 0, model.ErrUserAlreadyExists
	}
	for _, existing := range f.st.users {
		if existing.StaffID == u.StaffID {
			return 0, model.ErrStaffHasAccount
		}
	}
	f.st.nextUserID++
	u.ID = f.st.nextUserID

	staff := f.st.staff[u.StaffID]
	f.st.users[u.ID] = model.LoginUser{
		User:         u,
		FirstName:    staff.FirstName,
		LastName:     staff.LastName,
		StaffRole:    staff.Role,
		Email:        staff.Email,
		Phone:        staff.Phone,
		DepartmentID: staff.DepartmentID,
	}
	return u.ID, nil
}

func (f fakeUsers) List(_ context.Context, _ database.Querier, page model.ListQuery) ([]model.LoginUser, model.Meta, error) {
	ids := slices.Sorted(maps.Keys(f.st.users))
	out := []model.LoginUser{}
	for i, id := range ids {
		if i >= page.Offset() && len(out) < page.Limit {
			out = append(out, f.st.users[id])
		}
	}
	return out, page.Meta(len(ids)), nil
}

func (f fakeUsers) SetActive(_ context.Context, _ database.Querier, userID int64, active bool, now time.Time) (bool, error) {
	u, ok := f.st.users[userID]
	if !ok {
		return false, nil
	}
	u.IsActive = active
	u.UpdatedAt = now
	f.st.users[userID] = u
	return true, nil
}

func (f fakeUsers) RecordFailedAttempt(_ context.Context, _ database.Querier, userID int64, upd repository.LockoutUpdate) (model.LockState, error) {
	u, ok := f.st.users[userID]
	if !ok {
		return model.LockState{}, model.ErrUserNotFound
	}

	attempts := u.FailedLoginAttempts + 1
	if upd.RestartOnExpiry && u.LockedUntil != nil && !u.LockedUntil.After(upd.Now) {
		attempts = 1
	}
	u.FailedLoginAttempts = attempts
	u.AccountLocked = attempts >= upd.MaxAttempts
	u.LockedUntil = nil
	if u.AccountLocked {
		until := upd.LockUntil
		u.LockedUntil = &until
	}
	f.st.users[userID] = u

	return model.LockState{FailedAttempts: attempts, Locked: u.AccountLocked, LockedUntil: u.LockedUntil}, nil
}

func (f fakeUsers) RecordSuccessfulLogin(_ context.Context, _ database.Querier, userID int64, now time.Time) error {
	u := f.st.users[userID]
	u.FailedLoginAttempts = 0
	u.AccountLocked = false
	u.LockedUntil = nil
	u.LastLogin = &now
	f.st.users[userID] = u
	return nil
}

func (f fakeUsers) UpdatePassword(_ context.Context, _ database.Querier, userID int64, hash string, salt string, _ time.Time) error {
	u, ok := f.st.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.Salt = salt
	f.st.users[userID] = u
	return nil
}

func (f fakeUsers) SetResetToken(_ context.Context, _ database.Querier, userID int64, digest string, expires time.Time, _ time.Time) error {
	f.st.resetTokens[userID] = resetToken{digest: digest, expires: expires}
	return nil
}

func (f fakeUsers) FindByResetToken(_ context.Context, _ database.Querier, digest string, now time.Time) (model.User, error) {
	for userID, tok := range f.st.resetTokens {
		if tok.digest == digest && tok.expires.After(now) {
			return f.st.users[userID].User, nil
		}
	}
	return model.User{}, model.ErrResetTokenNotFound
}

func (f fakeUsers) CompletePasswordReset(ctx context.Context, q database.Querier, userID int64, hash string, salt string, now time.Time) error {
	if err := f.UpdatePassword(ctx, q, userID, hash, salt, now); err != nil {
		return err
	}
	delete(f.st.resetTokens, userID)
	u := f.st.users[userID]
	u.FailedLoginAttempts = 0
	u.AccountLocked = false
	u.LockedUntil = nil
	f.st.users[userID] = u
	return nil
}

type fakeRoles struct{ st *memState }

func (f fakeRoles) FindByID(_ context.Context, _ database.Querier, roleID int64) (model.Role, error) {
	r, ok := f.st.roles[roleID]
	if !ok {
		return model.Role{}, model.ErrRoleNotFound
	}
	return r, nil
}

func (f fakeRoles) Assign(_ context.Context, _ database.Querier, userID int64, roleID int64) error {
	if !slices.Contains(f.st.userRoles[userID], roleID) {
		f.st.userRoles[userID] = append(f.st.userRoles[userID], roleID)
	}
	return nil
}

func (f fakeRoles) ListForUser(_ context.Context, _ database.Querier, userID int64) ([]model.Role, error) {
	roles := []model.Role{}
	for _, id := range f.st.userRoles[userID] {
		roles = append(roles, f.st.roles[id])
	}
	return roles, nil
}

func (f fakeRoles) NamesForUser(ctx context.Context, q database.Querier, userID int64) ([]string, error) {
	roles, _ := f.ListForUser(ctx, q, userID)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func (f fakeRoles) RevokeAllForUser(_ context.Context, _ database.Querier, userID int64) error {
	delete(f.st.userRoles, userID)
	return nil
}

func (f fakeRoles) NamesForUsers(ctx context.Context, q database.Querier, userIDs []int64) (map[int64][]string, error) {
	out := map[int64][]string{}
	for _, id := range userIDs {
		if names, _ := f.NamesForUser(ctx, q, id); len(names) > 0 {
			out[id] = names
		}
	}
	return out, nil
}

type fakeStaff struct{ st *memState }

func (f fakeStaff) Exists(_ context.Context, _ database.Querier, id int64) (bool, error) {
	_, ok := f.st.staff[id]
	return ok, nil
}

type fakeDepartments struct{ st *memState }

func (f fakeDepartments) FindByID(_ context.Context, _ database.Querier, id int64) (model.Department, error) {
	d, ok := f.st.departments[id]
	if !ok {
		return model.Department{}, model.ErrNotFound
	}
	return d, nil
}

type fakeSessions struct{ st *memState }

func (f fakeSessions) Create(_ context.Context, _ database.Querier, s model.Session) error {
	f.st.sessions[s.ID] = s
	return nil
}

func (f fakeSessions) FindValid(_ context.Context, _ database.Querier, sessionID string, now time.Time) (model.Session, error) {
	s, ok := f.st.sessions[sessionID]
	if !ok || !s.ExpiresAt.After(now) {
		return model.Session{}, model.ErrSessionNotFound
	}
	return s, nil
}

func (f fakeSessions) Touch(_ context.Context, _ database.Querier, sessionID string, now time.Time) error {
	if s, ok := f.st.sessions[sessionID]; ok {
		s.LastActivity = now
		f.st.sessions[sessionID] = s
	}
	return nil
}

func (f fakeSessions) Delete(_ context.Context, _ database.Querier, sessionID string) (bool, error) {
	_, ok := f.st.sessions[sessionID]
	delete(f.st.sessions, sessionID)
	return ok, nil
}

func (f fakeSessions) DeleteAllForUser(_ context.Context, _ database.Querier, userID int64) (int64, error) {
	var n int64
	for id, s := range f.st.sessions {
		if s.UserID == userID {
			delete(f.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f fakeSessions) DeleteExpired(_ context.Context, _ database.Querier, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.st.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f fakeSessions) CountActive(_ context.Context, _ database.Querier, now time.Time) (int64, error) {
	var n int64
	for _, s := range f.st.sessions {
		if s.ExpiresAt.After(now) {
			n++
		}
	}
	return n, nil
}

// fakeAudit fails the next write when failNext is set.
type fakeAudit struct {
	st       *memState
	failNext *bool
}

func (f fakeAudit) Log(_ context.Context, _ database.Querier, entry model.AuditEntry) error {
	if f.failNext != nil && *f.failNext {
		*f.failNext = false
		return errors.New("audit store unavailable")
	}
	f.st.audit = append(f.st.audit, entry)
	return nil
}

func (f fakeAudit) Query(_ context.Context, _ database.Querier, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	return slices.Clone(f.st.audit), query.Meta(len(f.st.audit)), nil
}

// fakeClock is a settable time source shared by every component under test.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
