package database

import "context"

// ListShipyards returns all shipyards ordered by name.
func (db *DB) ListShipyards(ctx context.Context) ([]NameRefAPI, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name FROM shipyard ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	yards := []NameRefAPI{}
	for rows.Next() {
		var y NameRefAPI
		if err := rows.Scan(&y.ID, &y.Name); err != nil {
			return nil, err
		}
		yards = append(yards, y)
	}
	return yards, rows.Err()
}
