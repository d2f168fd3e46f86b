package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ShipFilter specifies filters for listing ships.
type ShipFilter struct {
	Name   string
	Limit  int
	Offset int
}

// Populated reports whether any filter field is set. Ships are a
// requires-a-filter table: with nothing populated the handler returns an
// empty page without running the count.
func (f ShipFilter) Populated() bool {
	return f.Name != ""
}

// ListShips returns ships matching the filter, name ascending.
func (db *DB) ListShips(ctx context.Context, filter ShipFilter) ([]NameRefAPI, int, error) {
	const where = ` WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%')`
	args := []any{pqString(filter.Name)}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM ship`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, name FROM ship`+where+` ORDER BY name ASC LIMIT $2 OFFSET $3`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	ships := []NameRefAPI{}
	for rows.Next() {
		var s NameRefAPI
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, 0, err
		}
		ships = append(ships, s)
	}
	return ships, total, rows.Err()
}

// GetShip returns a single ship.
func (db *DB) GetShip(ctx context.Context, id int) (*NameRefAPI, error) {
	var s NameRefAPI
	err := db.Pool.QueryRow(ctx, `SELECT id, name FROM ship WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateShip inserts a ship and returns its id.
func (db *DB) CreateShip(ctx context.Context, name string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `INSERT INTO ship (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

// UpdateShip renames a ship.
func (db *DB) UpdateShip(ctx context.Context, id int, name string) error {
	res, err := db.Pool.Exec(ctx, `UPDATE ship SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteShip removes a ship; crew members keep their rows with ship cleared.
func (db *DB) DeleteShip(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM ship WHERE id = $1`, id)
	return err
}
