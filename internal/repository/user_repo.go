package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

// staffAccountConstraint is the default name Postgres gives UNIQUE(staff_id).
const staffAccountConstraint = "users_staff_id_key"

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const loginUserColumns = `u.user_id, u.staff_id, u.username, u.password_hash, u.salt, u.is_active,
	u.failed_login_attempts, u.account_locked, u.account_locked_until, u.last_login,
	u.created_at, u.updated_at,
	s.first_name, s.last_name, s.role, s.email, s.phone, s.department_id`

func scanLoginUser(row pgx.Row) (model.LoginUser, error) {
	var u model.LoginUser
	err := row.Scan(&u.ID, &u.StaffID, &u.Username, &u.PasswordHash, &u.Salt, &u.IsActive,
		&u.FailedLoginAttempts, &u.AccountLocked, &u.LockedUntil, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt,
		&u.FirstName, &u.LastName, &u.StaffRole, &u.Email, &u.Phone, &u.DepartmentID)
	return u, err
}

// FindLoginUser loads a user with its staff row. Usernames match case-insensitively.
func (r *UserRepository) FindLoginUser(ctx context.Context, q database.Querier, username string) (model.LoginUser, error) {
	u, err := scanLoginUser(q.QueryRow(ctx,
		`SELECT `+loginUserColumns+`
		 FROM users u JOIN staff s ON s.staff_id = u.staff_id
		 WHERE lower(u.username) = lower($1)`, strings.TrimSpace(username)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoginUser{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.LoginUser{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindLoginUserByID(ctx context.Context, q database.Querier, userID int64) (model.LoginUser, error) {
	u, err := scanLoginUser(q.QueryRow(ctx,
		`SELECT `+loginUserColumns+`
		 FROM users u JOIN staff s ON s.staff_id = u.staff_id
		 WHERE u.user_id = $1`, userID))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoginUser{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.LoginUser{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, q database.Querier, username string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByStaffID(ctx context.Context, q database.Querier, staffID int64) (bool, error) {
	return rowExists(ctx, q, "users", "staff_id", staffID)
}

func (r *UserRepository) Create(ctx context.Context, q database.Querier, u model.User) (int64, error) {
	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO users (staff_id, username, password_hash, salt, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING user_id`,
		u.StaffID, strings.TrimSpace(u.Username), u.PasswordHash, u.Salt, u.IsActive, u.CreatedAt).Scan(&id)
	if err != nil {
		if constraint, ok := database.IsUniqueViolation(err); ok {
			if constraint == staffAccountConstraint {
				return 0, model.ErrStaffHasAccount
			}
			return 0, model.ErrUserAlreadyExists
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// List pages through users in id order.
func (r *UserRepository) List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.LoginUser, model.Meta, error) {
	total, err := countRows(ctx, q, "users")
	if err != nil {
		return nil, model.Meta{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+loginUserColumns+`
		 FROM users u JOIN staff s ON s.staff_id = u.staff_id
		 ORDER BY u.user_id LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]model.LoginUser, 0)
	for rows.Next() {
		u, err := scanLoginUser(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, page.Meta(total), rows.Err()
}

// SetActive reports false when no such user exists.
func (r *UserRepository) SetActive(ctx context.Context, q database.Querier, userID int64, active bool, now time.Time) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = $3 WHERE user_id = $1`, userID, active, now)
	if err != nil {
		return false, fmt.Errorf("set user active: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LockoutUpdate parameterizes RecordFailedAttempt.
type LockoutUpdate struct {
	Now         time.Time
	MaxAttempts int
	LockUntil   time.Time
	// RestartOnExpiry restarts the counter at 1 when the failure lands on an
	// expired lock instead of continuing from the stored count.
	RestartOnExpiry bool
}

// RecordFailedAttempt increments the counter and trips the lock in a single
// statement, so concurrent failures cannot lose an increment.
func (r *UserRepository) RecordFailedAttempt(ctx context.Context, q database.Querier, userID int64, upd LockoutUpdate) (model.LockState, error) {
	var state model.LockState
	err := q.QueryRow(ctx,
		`WITH next AS (
			SELECT user_id,
			       CASE WHEN $5::boolean AND account_locked_until IS NOT NULL AND account_locked_until <= $2
			            THEN 1
			            ELSE failed_login_attempts + 1
			       END AS attempts
			FROM users WHERE user_id = $1
			FOR UPDATE
		)
		UPDATE users u SET
			failed_login_attempts = next.attempts,
			account_locked = next.attempts >= $3,
			account_locked_until = CASE WHEN next.attempts >= $3 THEN $4::timestamptz ELSE NULL END,
			updated_at = $2
		FROM next
		WHERE u.user_id = next.user_id
		RETURNING u.failed_login_attempts, u.account_locked, u.account_locked_until`,
		userID, upd.Now, upd.MaxAttempts, upd.LockUntil, upd.RestartOnExpiry).
		Scan(&state.FailedAttempts, &state.Locked, &state.LockedUntil)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.LockState{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.LockState{}, fmt.Errorf("record failed attempt: %w", err)
	}
	return state, nil
}

func (r *UserRepository) RecordSuccessfulLogin(ctx context.Context, q database.Querier, userID int64, now time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE users SET failed_login_attempts = 0, account_locked = false, account_locked_until = NULL,
		        last_login = $2, updated_at = $2
		 WHERE user_id = $1`, userID, now)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, q database.Querier, userID int64, hash string, salt string, now time.Time) error {
	tag, err := q.Exec(ctx,
		`UPDATE users SET password_hash = $2, salt = $3, updated_at = $4 WHERE user_id = $1`,
		userID, hash, salt, now)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// SetResetToken stores the digest of a reset token, replacing any earlier one.
func (r *UserRepository) SetResetToken(ctx context.Context, q database.Querier, userID int64, digest string, expires time.Time, now time.Time) error {
	_, err := q.Exec(ctx,
		`UPDATE users SET password_reset_token = $2, password_reset_expires = $3, updated_at = $4
		 WHERE user_id = $1`, userID, digest, expires, now)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, q database.Querier, digest string, now time.Time) (model.User, error) {
	var u model.User
	err := q.QueryRow(ctx,
		`SELECT user_id, staff_id, username, is_active
		 FROM users
		 WHERE password_reset_token = $1 AND password_reset_expires > $2`, digest, now).
		Scan(&u.ID, &u.StaffID, &u.Username, &u.IsActive)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrResetTokenNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by reset token: %w", err)
	}
	return u, nil
}

// CompletePasswordReset stores the new hash and clears the reset token and
// all lockout state.
func (r *UserRepository) CompletePasswordReset(ctx context.Context, q database.Querier, userID int64, hash string, salt string, now time.Time) error {
	tag, err := q.Exec(ctx,
		`UPDATE users SET password_hash = $2, salt = $3,
		        password_reset_token = NULL, password_reset_expires = NULL,
		        failed_login_attempts = 0, account_locked = false, account_locked_until = NULL,
		        updated_at = $4
		 WHERE user_id = $1`, userID, hash, salt, now)
	if err != nil {
		return fmt.Errorf("complete password reset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
