package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hospital-api/internal/database"
	"hospital-api/internal/model"
)

type RoleRepository struct{}

func NewRoleRepository() *RoleRepository {
	return &RoleRepository{}
}

func (r *RoleRepository) FindByID(ctx context.Context, q database.Querier, roleID int64) (model.Role, error) {
	var role model.Role
	err := q.QueryRow(ctx,
		`SELECT role_id, role_name, description FROM roles WHERE role_id = $1`, roleID).
		Scan(&role.ID, &role.Name, &role.Description)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Role{}, model.ErrRoleNotFound
	}
	if err != nil {
		return model.Role{}, fmt.Errorf("find role: %w", err)
	}
	return role, nil
}

func (r *RoleRepository) Assign(ctx context.Context, q database.Querier, userID int64, roleID int64) error {
	_, err := q.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) RevokeAllForUser(ctx context.Context, q database.Querier, userID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("revoke user roles: %w", err)
	}
	return nil
}

func (r *RoleRepository) ListForUser(ctx context.Context, q database.Querier, userID int64) ([]model.Role, error) {
	rows, err := q.Query(ctx,
		`SELECT r.role_id, r.role_name, r.description
		 FROM user_roles ur JOIN roles r ON r.role_id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.role_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) NamesForUser(ctx context.Context, q database.Querier, userID int64) ([]string, error) {
	roles, err := r.ListForUser(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names, nil
}

// NamesForUsers returns role names keyed by user id. Users without roles
// are absent from the map.
func (r *RoleRepository) NamesForUsers(ctx context.Context, q database.Querier, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx,
		`SELECT ur.user_id, r.role_name
		 FROM user_roles ur JOIN roles r ON r.role_id = ur.role_id
		 WHERE ur.user_id = ANY($1)
		 ORDER BY ur.user_id, r.role_name`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list roles for users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var name string
		if err := rows.Scan(&userID, &name); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		out[userID] = append(out[userID], name)
	}
	return out, rows.Err()
}
