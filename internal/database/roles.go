package database

import "context"

// RoleAPI represents a crew member role.
type RoleAPI struct {
	ID       int    `json:"id"`
	RoleName string `json:"role_name"`
}

// ListRoles returns all roles ordered by name.
func (db *DB) ListRoles(ctx context.Context) ([]RoleAPI, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, role_name FROM crew_member_roles ORDER BY role_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []RoleAPI{}
	for rows.Next() {
		var r RoleAPI
		if err := rows.Scan(&r.ID, &r.RoleName); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
