package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// TagRefAPI is an embedded tag reference with battery state.
type TagRefAPI struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	RemainingBattery float64 `json:"remaining_battery"`
}

// RoleRefAPI is an embedded role reference.
type RoleRefAPI struct {
	ID       int    `json:"id"`
	RoleName string `json:"role_name"`
}

// CrewMemberAPI represents a crew member for API responses.
type CrewMemberAPI struct {
	ID   int         `json:"id"`
	Name string      `json:"name"`
	Role *RoleRefAPI `json:"role"`
	Ship *NameRefAPI `json:"ship"`
	Tag  *TagRefAPI  `json:"tag"`
}

// CrewFilter specifies filters for listing crew members.
type CrewFilter struct {
	ShipName       string
	CrewMemberName string
	RoleName       string
	Limit          int
	Offset         int
}

// Populated reports whether any filter field is set. Crew members are a
// requires-a-filter table.
func (f CrewFilter) Populated() bool {
	return f.ShipName != "" || f.CrewMemberName != "" || f.RoleName != ""
}

const crewSelect = `
	SELECT cm.id, cm.name,
	       r.id, r.role_name,
	       s.id, s.name,
	       t.id, t.name, t.remaining_battery
	FROM crew_member cm
	LEFT JOIN crew_member_roles r ON cm.role_id = r.id
	LEFT JOIN ship s ON cm.ship_id = s.id
	LEFT JOIN tag t ON cm.tag_id = t.id`

const crewWhere = `
	WHERE ($1::text IS NULL OR s.name ILIKE '%' || $1 || '%')
	  AND ($2::text IS NULL OR cm.name ILIKE '%' || $2 || '%')
	  AND ($3::text IS NULL OR r.role_name ILIKE '%' || $3 || '%')`

func scanCrewMember(row pgx.Row) (*CrewMemberAPI, error) {
	var cm CrewMemberAPI
	var roleID *int
	var roleName *string
	var shipID *int
	var shipName *string
	var tagID *int
	var tagName *string
	var tagBattery *float64
	err := row.Scan(&cm.ID, &cm.Name, &roleID, &roleName, &shipID, &shipName, &tagID, &tagName, &tagBattery)
	if err != nil {
		return nil, err
	}
	if roleID != nil {
		cm.Role = &RoleRefAPI{ID: *roleID, RoleName: *roleName}
	}
	if shipID != nil {
		cm.Ship = &NameRefAPI{ID: *shipID, Name: *shipName}
	}
	if tagID != nil {
		cm.Tag = &TagRefAPI{ID: *tagID, Name: *tagName, RemainingBattery: *tagBattery}
	}
	return &cm, nil
}

// ListCrewMembers returns crew members matching the filter, name ascending.
func (db *DB) ListCrewMembers(ctx context.Context, filter CrewFilter) ([]CrewMemberAPI, int, error) {
	args := []any{pqString(filter.ShipName), pqString(filter.CrewMemberName), pqString(filter.RoleName)}

	const countFrom = `
		FROM crew_member cm
		LEFT JOIN crew_member_roles r ON cm.role_id = r.id
		LEFT JOIN ship s ON cm.ship_id = s.id`
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*)`+countFrom+crewWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx,
		crewSelect+crewWhere+` ORDER BY cm.name ASC LIMIT $4 OFFSET $5`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	members := []CrewMemberAPI{}
	for rows.Next() {
		cm, err := scanCrewMember(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *cm)
	}
	return members, total, rows.Err()
}

// GetCrewMember returns a single crew member with role, ship and tag.
func (db *DB) GetCrewMember(ctx context.Context, id int) (*CrewMemberAPI, error) {
	cm, err := scanCrewMember(db.Pool.QueryRow(ctx, crewSelect+` WHERE cm.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// CreateCrewMember inserts a crew member. Assigning a tag held by someone
// else fails with ErrTagAssigned.
func (db *DB) CreateCrewMember(ctx context.Context, name string, roleID, shipID int, tagID *int) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO crew_member (name, role_id, ship_id, tag_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, roleID, shipID, tagID,
	).Scan(&id)
	if err != nil {
		if uniqueViolation(err, "") {
			return 0, ErrTagAssigned
		}
		return 0, err
	}
	return id, nil
}

// UpdateCrewMember replaces the mutable fields of a crew member.
func (db *DB) UpdateCrewMember(ctx context.Context, id int, name string, roleID, shipID int, tagID *int) error {
	res, err := db.Pool.Exec(ctx,
		`UPDATE crew_member SET name = $1, role_id = $2, ship_id = $3, tag_id = $4 WHERE id = $5`,
		name, roleID, shipID, tagID, id)
	if err != nil {
		if uniqueViolation(err, "") {
			return ErrTagAssigned
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCrewMember removes a crew member; permanence logs cascade away.
func (db *DB) DeleteCrewMember(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM crew_member WHERE id = $1`, id)
	return err
}

// FindCrewMemberByTag returns the id of the crew member holding a tag, or
// ErrNotFound when the tag is unassigned. Used by the ingestion core to
// classify events.
func FindCrewMemberByTag(ctx context.Context, q Querier, tagID int) (int, error) {
	var id int
	err := q.QueryRow(ctx, `SELECT id FROM crew_member WHERE tag_id = $1`, tagID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}
