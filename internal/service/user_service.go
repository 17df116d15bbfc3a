package service

import (
	"context"
	"errors"
	"time"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
	"hospital-api/pkg/apierror"
)

type userAdminStore interface {
	FindLoginUserByID(ctx context.Context, q database.Querier, userID int64) (model.LoginUser, error)
	List(ctx context.Context, q database.Querier, page model.ListQuery) ([]model.LoginUser, model.Meta, error)
	SetActive(ctx context.Context, q database.Querier, userID int64, active bool, now time.Time) (bool, error)
}

type roleAdminStore interface {
	FindByID(ctx context.Context, q database.Querier, roleID int64) (model.Role, error)
	Assign(ctx context.Context, q database.Querier, userID int64, roleID int64) error
	RevokeAllForUser(ctx context.Context, q database.Querier, userID int64) error
	NamesForUser(ctx context.Context, q database.Querier, userID int64) ([]string, error)
	NamesForUsers(ctx context.Context, q database.Querier, userIDs []int64) (map[int64][]string, error)
}

type sessionRevoker interface {
	RevokeAll(ctx context.Context, q database.Querier, userID int64) (int64, error)
}

// UserService is the administrator's view of user accounts.
type UserService struct {
	db       Store
	users    userAdminStore
	roles    roleAdminStore
	sessions sessionRevoker
	audit    *AuditService
	now      clock
}

func NewUserService(db Store, users userAdminStore, roles roleAdminStore, sessions sessionRevoker, audit *AuditService) *UserService {
	return &UserService{db: db, users: users, roles: roles, sessions: sessions, audit: audit, now: systemClock}
}

func (s *UserService) List(ctx context.Context, page model.ListQuery) ([]model.UserAccount, model.Meta, error) {
	users, meta, err := s.users.List(ctx, s.db, page.Normalize())
	if err != nil {
		return nil, model.Meta{}, err
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	names, err := s.roles.NamesForUsers(ctx, s.db, ids)
	if err != nil {
		return nil, model.Meta{}, err
	}

	out := make([]model.UserAccount, len(users))
	for i, u := range users {
		out[i] = userAccount(u, names[u.ID])
	}
	return out, meta, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (model.UserAccount, error) {
	if id <= 0 {
		return model.UserAccount{}, apierror.Validation("invalid user id", "id")
	}
	return s.load(ctx, s.db, id)
}

// Update applies activation and role changes with one audit entry.
// Deactivating a user revokes every session it holds.
func (s *UserService) Update(ctx context.Context, actor model.Actor, id int64, req model.UpdateUserRequest) (model.UserAccount, error) {
	if id <= 0 {
		return model.UserAccount{}, apierror.Validation("invalid user id", "id")
	}
	if req.IsActive == nil && req.RoleIDs == nil {
		return model.UserAccount{}, errNoUpdatableFields
	}
	if req.IsActive != nil && !*req.IsActive && id == actor.UserID {
		return model.UserAccount{}, apierror.Validation("you cannot deactivate your own account", "isActive")
	}
	for _, roleID := range req.RoleIDs {
		if roleID <= 0 {
			return model.UserAccount{}, apierror.Validation("roleIds must contain positive ids", "roleIds")
		}
	}

	var updated model.UserAccount
	err := s.db.InTx(ctx, func(q database.Querier) error {
		before, err := s.load(ctx, q, id)
		if err != nil {
			return err
		}

		if req.IsActive != nil && *req.IsActive != before.IsActive {
			found, err := s.users.SetActive(ctx, q, id, *req.IsActive, s.now())
			if err != nil {
				return err
			}
			if !found {
				return notFound("user", id)
			}
			if !*req.IsActive {
				if _, err := s.sessions.RevokeAll(ctx, q, id); err != nil {
					return err
				}
			}
		}

		if req.RoleIDs != nil {
			if err := s.replaceRoles(ctx, q, id, req.RoleIDs); err != nil {
				return err
			}
		}

		updated, err = s.load(ctx, q, id)
		if err != nil {
			return err
		}

		return s.audit.Record(ctx, q, actorEntry(actor, model.AuditUpdate, "users", id, before, updated))
	})
	if err != nil {
		return model.UserAccount{}, err
	}
	return updated, nil
}

func (s *UserService) replaceRoles(ctx context.Context, q database.Querier, userID int64, roleIDs []int64) error {
	for _, roleID := range roleIDs {
		if _, err := s.roles.FindByID(ctx, q, roleID); err != nil {
			if errors.Is(err, model.ErrRoleNotFound) {
				return notFound("role", roleID)
			}
			return err
		}
	}

	if err := s.roles.RevokeAllForUser(ctx, q, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if err := s.roles.Assign(ctx, q, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) load(ctx context.Context, q database.Querier, id int64) (model.UserAccount, error) {
	u, err := s.users.FindLoginUserByID(ctx, q, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.UserAccount{}, notFound("user", id)
	}
	if err != nil {
		return model.UserAccount{}, err
	}

	names, err := s.roles.NamesForUser(ctx, q, id)
	if err != nil {
		return model.UserAccount{}, err
	}
	return userAccount(u, names), nil
}

func userAccount(u model.LoginUser, roles []string) model.UserAccount {
	if roles == nil {
		roles = []string{}
	}
	return model.UserAccount{
		UserID:        u.ID,
		StaffID:       u.StaffID,
		Username:      u.Username,
		FullName:      u.FullName(),
		Email:         u.Email,
		StaffRole:     u.StaffRole,
		IsActive:      u.IsActive,
		AccountLocked: u.AccountLocked,
		LockedUntil:   u.LockedUntil,
		LastLogin:     u.LastLogin,
		Roles:         roles,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
