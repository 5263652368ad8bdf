// This file defines the UserRole model and queries against the user_roles
// table. A user may hold any number of role rows (e.g. "customer" plus
// "owner"); the role column is an open string enum, so new roles can be
// introduced without a schema change. Roles are read on every request that
// needs them rather than being baked into access tokens.
package repository

import (
	"context"
	"database/sql"
	"time"
)

// Role names used by the application. The column itself accepts any
// string; these constants just keep call sites consistent.
const (
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
	RoleCustomer = "customer"
)

// UserRole mirrors one row of the 'user_roles' table.
type UserRole struct {
	UserID    uint64
	Role      string
	CreatedAt time.Time
}

// RoleRepo encapsulates queries against the user_roles table.
type RoleRepo struct {
	db *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// HasRole reports whether the user holds the named role.
func (r *RoleRepo) HasRole(ctx context.Context, userID uint64, role string) (bool, error) {
	const q = "SELECT 1 FROM user_roles WHERE user_id = ? AND role = ? LIMIT 1"
	var one int
	err := r.db.QueryRowContext(ctx, q, userID, role).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all role names held by the user in table scan order.
// A user with no rows yields an empty (non-nil) slice, not an error.
func (r *RoleRepo) ListByUser(ctx context.Context, userID uint64) ([]string, error) {
	const q = "SELECT role FROM user_roles WHERE user_id = ?"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Grant inserts a role row for the user. Granting an already-held role is
// a no-op thanks to the (user_id, role) unique key.
func (r *RoleRepo) Grant(ctx context.Context, userID uint64, role string) error {
	const q = "INSERT IGNORE INTO user_roles (user_id, role) VALUES (?, ?)"
	_, err := r.db.ExecContext(ctx, q, userID, role)
	return err
}
