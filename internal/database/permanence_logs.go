package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Ingestion-side writes. All run on the device transaction's Querier so the
// log mutation, the pairing reset and the telemetry update commit together.

// OpenLog inserts a new open interval (entry now, leave pending).
func OpenLog(ctx context.Context, q Querier, crewMemberID, shipyardID int) error {
	_, err := q.Exec(ctx,
		`INSERT INTO permanence_log (crew_member_id, shipyard_id, entry_timestamp) VALUES ($1, $2, now())`,
		crewMemberID, shipyardID)
	return err
}

// InsertLeaveOnlyLog records a leaving event with no matching entry.
func InsertLeaveOnlyLog(ctx context.Context, q Querier, crewMemberID, shipyardID int) error {
	_, err := q.Exec(ctx,
		`INSERT INTO permanence_log (crew_member_id, shipyard_id, leave_timestamp) VALUES ($1, $2, now())`,
		crewMemberID, shipyardID)
	return err
}

// CloseMostRecentOpenLog stamps leave on the open interval with the greatest
// entry timestamp for the pair. Returns false when no open interval exists.
func CloseMostRecentOpenLog(ctx context.Context, q Querier, crewMemberID, shipyardID int) (bool, error) {
	res, err := q.Exec(ctx, `
		UPDATE permanence_log SET leave_timestamp = now()
		WHERE id = (
			SELECT id FROM permanence_log
			WHERE crew_member_id = $1 AND shipyard_id = $2
			  AND entry_timestamp IS NOT NULL AND leave_timestamp IS NULL
			ORDER BY entry_timestamp DESC
			LIMIT 1
		)`,
		crewMemberID, shipyardID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// LogAPI represents a permanence log for API responses.
type LogAPI struct {
	ID             int           `json:"id"`
	CrewMember     CrewMemberAPI `json:"crew_member"`
	Shipyard       NameRefAPI    `json:"shipyard"`
	EntryTimestamp *time.Time    `json:"entry_timestamp"`
	LeaveTimestamp *time.Time    `json:"leave_timestamp"`
}

// LogFilter specifies filters for listing permanence logs. Start and End are
// always set (the handler defaults to the last 24 hours).
type LogFilter struct {
	Start          time.Time
	End            time.Time
	ShipyardName   string
	ShipName       string
	CrewMemberName string
	Limit          int
	Offset         int
}

const logSelect = `
	SELECT pl.id, pl.entry_timestamp, pl.leave_timestamp,
	       cm.id, cm.name,
	       r.id, r.role_name,
	       s.id, s.name,
	       t.id, t.name, t.remaining_battery,
	       sh.id, sh.name
	FROM permanence_log pl
	JOIN crew_member cm ON pl.crew_member_id = cm.id
	LEFT JOIN crew_member_roles r ON cm.role_id = r.id
	LEFT JOIN ship s ON cm.ship_id = s.id
	JOIN shipyard sh ON pl.shipyard_id = sh.id
	LEFT JOIN tag t ON cm.tag_id = t.id`

// Window match: either timestamp inside [start, end], or the interval spans
// the whole window (entered before, still inside or left after).
const logWhere = `
	WHERE (
	    (pl.entry_timestamp IS NOT NULL AND pl.entry_timestamp BETWEEN $1 AND $2) OR
	    (pl.leave_timestamp IS NOT NULL AND pl.leave_timestamp BETWEEN $1 AND $2) OR
	    (pl.entry_timestamp <= $2 AND (pl.leave_timestamp >= $1 OR pl.leave_timestamp IS NULL))
	)
	  AND ($3::text IS NULL OR sh.name ILIKE '%' || $3 || '%')
	  AND ($4::text IS NULL OR s.name ILIKE '%' || $4 || '%')
	  AND ($5::text IS NULL OR cm.name ILIKE '%' || $5 || '%')`

func scanLog(row pgx.Row) (*LogAPI, error) {
	var l LogAPI
	var roleID *int
	var roleName *string
	var shipID *int
	var shipName *string
	var tagID *int
	var tagName *string
	var tagBattery *float64
	err := row.Scan(
		&l.ID, &l.EntryTimestamp, &l.LeaveTimestamp,
		&l.CrewMember.ID, &l.CrewMember.Name,
		&roleID, &roleName,
		&shipID, &shipName,
		&tagID, &tagName, &tagBattery,
		&l.Shipyard.ID, &l.Shipyard.Name,
	)
	if err != nil {
		return nil, err
	}
	if roleID != nil {
		l.CrewMember.Role = &RoleRefAPI{ID: *roleID, RoleName: *roleName}
	}
	if shipID != nil {
		l.CrewMember.Ship = &NameRefAPI{ID: *shipID, Name: *shipName}
	}
	if tagID != nil {
		l.CrewMember.Tag = &TagRefAPI{ID: *tagID, Name: *tagName, RemainingBattery: *tagBattery}
	}
	return &l, nil
}

// ListLogs returns permanence logs overlapping the window, crew name ascending.
func (db *DB) ListLogs(ctx context.Context, filter LogFilter) ([]LogAPI, int, error) {
	const countFrom = `
		FROM permanence_log pl
		JOIN crew_member cm ON pl.crew_member_id = cm.id
		LEFT JOIN crew_member_roles r ON cm.role_id = r.id
		LEFT JOIN ship s ON cm.ship_id = s.id
		JOIN shipyard sh ON pl.shipyard_id = sh.id`
	args := []any{
		filter.Start, filter.End,
		pqString(filter.ShipyardName), pqString(filter.ShipName), pqString(filter.CrewMemberName),
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*)`+countFrom+logWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx,
		logSelect+logWhere+` ORDER BY cm.name ASC LIMIT $6 OFFSET $7`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []LogAPI{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, *l)
	}
	return logs, total, rows.Err()
}

// GetLog returns a single permanence log with its joins.
func (db *DB) GetLog(ctx context.Context, id int) (*LogAPI, error) {
	l, err := scanLog(db.Pool.QueryRow(ctx, logSelect+` WHERE pl.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CreateLog inserts a manual permanence log row.
func (db *DB) CreateLog(ctx context.Context, crewMemberID, shipyardID int, entry, leave *time.Time) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO permanence_log (crew_member_id, shipyard_id, entry_timestamp, leave_timestamp)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		crewMemberID, shipyardID, pqTime(entry), pqTime(leave),
	).Scan(&id)
	return id, err
}

// UpdateLog replaces the crew member and timestamps of a log row.
func (db *DB) UpdateLog(ctx context.Context, id, crewMemberID int, entry, leave *time.Time) error {
	res, err := db.Pool.Exec(ctx,
		`UPDATE permanence_log SET crew_member_id = $1, entry_timestamp = $2, leave_timestamp = $3 WHERE id = $4`,
		crewMemberID, pqTime(entry), pqTime(leave), id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLog removes a permanence log row.
func (db *DB) DeleteLog(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM permanence_log WHERE id = $1`, id)
	return err
}
