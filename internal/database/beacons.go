package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Beacon is a fixed activator installation at a shipyard gate.
type Beacon struct {
	ID                  int
	Number              int
	ShipyardID          int
	IsFirstWhenEntering bool
}

// GetBeacon loads an activator beacon by internal id.
func GetBeacon(ctx context.Context, q Querier, id int) (*Beacon, error) {
	var b Beacon
	err := q.QueryRow(ctx,
		`SELECT id, number, shipyard_id, is_first_when_entering FROM activator_beacon WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Number, &b.ShipyardID, &b.IsFirstWhenEntering)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BeaconAPI represents an activator beacon for API responses.
type BeaconAPI struct {
	ID                  int        `json:"id"`
	Number              int        `json:"number"`
	Shipyard            NameRefAPI `json:"shipyard"`
	IsFirstWhenEntering bool       `json:"is_first_when_entering"`
}

// ListBeacons returns all activator beacons ordered by friendly number.
func (db *DB) ListBeacons(ctx context.Context) ([]BeaconAPI, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ab.id, ab.number, ab.shipyard_id, s.name, ab.is_first_when_entering
		FROM activator_beacon ab
		JOIN shipyard s ON ab.shipyard_id = s.id
		ORDER BY ab.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	beacons := []BeaconAPI{}
	for rows.Next() {
		var b BeaconAPI
		if err := rows.Scan(&b.ID, &b.Number, &b.Shipyard.ID, &b.Shipyard.Name, &b.IsFirstWhenEntering); err != nil {
			return nil, err
		}
		beacons = append(beacons, b)
	}
	return beacons, rows.Err()
}
