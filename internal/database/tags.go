package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TagState is the per-tag rolling state read by the ingestion core.
type TagState struct {
	ID                 int
	PacketCounter      *int16
	PreviousEchobeacon *int
}

// TelemetryResult reports the outcome of a telemetry update: the tag state
// before the statement ran, and the pairing it left behind.
type TelemetryResult struct {
	OldCounter  *int16
	OldPrevious *int
	NewPrevious *int
}

// Duplicate reports whether the incoming packet repeated the stored counter,
// in which case the statement left counter and pairing untouched.
func (r TelemetryResult) Duplicate(incoming int16) bool {
	return r.OldCounter != nil && *r.OldCounter == incoming
}

// LookupTagState returns the rolling state for a tag by its MAC address.
func LookupTagState(ctx context.Context, q Querier, mac string) (*TagState, error) {
	var s TagState
	err := q.QueryRow(ctx,
		`SELECT id, packet_counter, previous_echobeacon FROM tag WHERE mac_address = $1`,
		mac,
	).Scan(&s.ID, &s.PacketCounter, &s.PreviousEchobeacon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RegisterTag inserts a tag row for a MAC seen over the air but not yet
// provisioned. Only used when auto-registration is enabled.
func RegisterTag(ctx context.Context, q Querier, mac string) (*TagState, error) {
	var s TagState
	err := q.QueryRow(ctx,
		`INSERT INTO tag (name, mac_address) VALUES ($1, $1) RETURNING id, packet_counter, previous_echobeacon`,
		mac,
	).Scan(&s.ID, &s.PacketCounter, &s.PreviousEchobeacon)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateTelemetry applies one decoded frame to the tag row in a single
// statement. The battery reading is always stored; the packet counter and
// pairing advance only when the counter changed, so the duplicate decision
// and the pairing update are coherent under the row lock taken by the inner
// SELECT ... FOR UPDATE. The pre-update counter and pairing come back via
// RETURNING: the old pairing is the P side of the direction pair, and the
// old counter decides whether this packet was a retransmission.
func UpdateTelemetry(ctx context.Context, q Querier, tagID int, battery float64, counter int16, activatorNumber uint16) (TelemetryResult, error) {
	var r TelemetryResult
	err := q.QueryRow(ctx, `
		UPDATE tag t SET
			remaining_battery = $2,
			packet_counter = CASE WHEN old.packet_counter IS NULL OR old.packet_counter <> $3
				THEN $3 ELSE old.packet_counter END,
			previous_echobeacon = CASE WHEN old.packet_counter IS NULL OR old.packet_counter <> $3
				THEN (SELECT ab.id FROM activator_beacon ab WHERE ab.number = $4 LIMIT 1)
				ELSE old.previous_echobeacon END
		FROM (SELECT id, packet_counter, previous_echobeacon FROM tag WHERE id = $1 FOR UPDATE) old
		WHERE t.id = old.id
		RETURNING old.packet_counter, old.previous_echobeacon, t.previous_echobeacon`,
		tagID, battery, counter, int(activatorNumber),
	).Scan(&r.OldCounter, &r.OldPrevious, &r.NewPrevious)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

// ClearPairing resets the tag's previous beacon so the next event requires a
// fresh pair. Called after an event is emitted.
func ClearPairing(ctx context.Context, q Querier, tagID int) error {
	_, err := q.Exec(ctx, `UPDATE tag SET previous_echobeacon = NULL WHERE id = $1`, tagID)
	return err
}

// TagAPI represents a tag for API responses.
type TagAPI struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	MACAddress       string      `json:"mac_address"`
	RemainingBattery float64     `json:"remaining_battery"`
	PacketCounter    *int16      `json:"packet_counter"`
	CrewMember       *NameRefAPI `json:"crew_member"`
}

// NameRefAPI is an embedded {id, name} reference.
type NameRefAPI struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TagFilter specifies filters for listing tags. At least one of Assigned or
// Vacant must be set by the caller; with both off the handler short-circuits
// to an empty result.
type TagFilter struct {
	Assigned bool
	Vacant   bool
	Limit    int
	Offset   int
}

const tagSelect = `
	SELECT t.id, t.name, t.mac_address, t.remaining_battery, t.packet_counter,
	       cm.id, cm.name
	FROM tag t
	LEFT JOIN crew_member cm ON t.id = cm.tag_id`

func scanTag(row pgx.Row) (*TagAPI, error) {
	var t TagAPI
	var cmID *int
	var cmName *string
	if err := row.Scan(&t.ID, &t.Name, &t.MACAddress, &t.RemainingBattery, &t.PacketCounter, &cmID, &cmName); err != nil {
		return nil, err
	}
	if cmID != nil {
		t.CrewMember = &NameRefAPI{ID: *cmID, Name: *cmName}
	}
	return &t, nil
}

// ListTags returns tags matching the filter, battery ascending.
func (db *DB) ListTags(ctx context.Context, filter TagFilter) ([]TagAPI, int, error) {
	where := ""
	switch {
	case filter.Assigned && filter.Vacant:
		// both populations requested — no predicate
	case filter.Assigned:
		where = " WHERE cm.id IS NOT NULL"
	case filter.Vacant:
		where = " WHERE cm.id IS NULL"
	}

	countQuery := `SELECT count(*) FROM tag t LEFT JOIN crew_member cm ON t.id = cm.tag_id` + where
	var total int
	if err := db.Pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx,
		tagSelect+where+` ORDER BY t.remaining_battery ASC LIMIT $1 OFFSET $2`,
		filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tags := []TagAPI{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, 0, err
		}
		tags = append(tags, *t)
	}
	return tags, total, rows.Err()
}

// GetTag returns a single tag with its crew assignment.
func (db *DB) GetTag(ctx context.Context, id int) (*TagAPI, error) {
	t, err := scanTag(db.Pool.QueryRow(ctx, tagSelect+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTag inserts a tag and optionally assigns it to a crew member.
func (db *DB) CreateTag(ctx context.Context, name, mac string, crewMemberID *int) (int, error) {
	var id int
	err := db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO tag (name, mac_address) VALUES ($1, $2) RETURNING id`,
			name, mac,
		).Scan(&id); err != nil {
			return err
		}
		if crewMemberID != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE crew_member SET tag_id = $1 WHERE id = $2`, id, *crewMemberID); err != nil {
				if uniqueViolation(err, "") {
					return ErrTagAssigned
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateTag renames a tag and moves its crew assignment: any current holder
// is unassigned first, then the requested crew member (if any) takes it.
func (db *DB) UpdateTag(ctx context.Context, id int, name string, crewMemberID *int) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE tag SET name = $1 WHERE id = $2`, name, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE crew_member SET tag_id = NULL WHERE tag_id = $1`, id); err != nil {
			return err
		}
		if crewMemberID != nil {
			res, err := tx.Exec(ctx, `UPDATE crew_member SET tag_id = $1 WHERE id = $2`, id, *crewMemberID)
			if err != nil {
				if uniqueViolation(err, "") {
					return ErrTagAssigned
				}
				return err
			}
			if res.RowsAffected() == 0 {
				return fmt.Errorf("crew member %d: %w", *crewMemberID, ErrNotFound)
			}
		}
		return nil
	})
}

// DeleteTag removes a tag. The crew_member.tag_id FK clears the assignment
// and unassigned entries cascade away with the tag.
func (db *DB) DeleteTag(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM tag WHERE id = $1`, id)
	return err
}
