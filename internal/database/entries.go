package database

import (
	"context"
	"time"
)

// InsertUnassignedEntry records a gate crossing by a tag not linked to any
// crew member.
func InsertUnassignedEntry(ctx context.Context, q Querier, tagID, shipyardID int, isEntering bool) error {
	_, err := q.Exec(ctx,
		`INSERT INTO unassigned_tag_entry (tag_id, shipyard_id, is_entering, advertisement_timestamp)
		 VALUES ($1, $2, $3, now())`,
		tagID, shipyardID, isEntering)
	return err
}

// EntryAPI represents an unassigned tag entry for API responses.
type EntryAPI struct {
	ID                     int        `json:"id"`
	Tag                    TagRefAPI  `json:"tag"`
	Shipyard               NameRefAPI `json:"shipyard"`
	AdvertisementTimestamp time.Time  `json:"advertisement_timestamp"`
	IsEntering             bool       `json:"is_entering"`
}

// EntryFilter specifies filters for listing unassigned tag entries. Start and
// End are always set (the handler defaults to the last 24 hours).
type EntryFilter struct {
	Start        time.Time
	End          time.Time
	ShipyardName string
	TagName      string
	Limit        int
	Offset       int
}

const entryWhere = `
	WHERE ute.advertisement_timestamp BETWEEN $1 AND $2
	  AND ($3::text IS NULL OR s.name ILIKE '%' || $3 || '%')
	  AND ($4::text IS NULL OR t.name ILIKE '%' || $4 || '%')`

// ListEntries returns unassigned tag entries in the window, most recent first.
func (db *DB) ListEntries(ctx context.Context, filter EntryFilter) ([]EntryAPI, int, error) {
	const from = `
		FROM unassigned_tag_entry ute
		JOIN tag t ON ute.tag_id = t.id
		JOIN shipyard s ON ute.shipyard_id = s.id`
	args := []any{filter.Start, filter.End, pqString(filter.ShipyardName), pqString(filter.TagName)}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*)`+from+entryWhere, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT ute.id, ute.tag_id, t.name, t.remaining_battery,
		       ute.shipyard_id, s.name,
		       ute.advertisement_timestamp, ute.is_entering`+
		from+entryWhere+` ORDER BY ute.advertisement_timestamp DESC LIMIT $5 OFFSET $6`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []EntryAPI{}
	for rows.Next() {
		var e EntryAPI
		if err := rows.Scan(
			&e.ID, &e.Tag.ID, &e.Tag.Name, &e.Tag.RemainingBattery,
			&e.Shipyard.ID, &e.Shipyard.Name,
			&e.AdvertisementTimestamp, &e.IsEntering,
		); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// DeleteEntry removes a single unassigned tag entry.
func (db *DB) DeleteEntry(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM unassigned_tag_entry WHERE id = $1`, id)
	return err
}
