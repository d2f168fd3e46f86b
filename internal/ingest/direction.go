package ingest

import "github.com/fredneedsausername/gatekeeper/internal/database"

// Direction is the inferred side of a gate crossing.
type Direction int

const (
	Entering Direction = iota
	Leaving
)

func (d Direction) String() string {
	if d == Entering {
		return "entering"
	}
	return "leaving"
}

// ResolveDirection decides the crossing direction from an ordered activator
// pair: the beacon the tag was paired with before (prev) and the one it just
// reported (curr). Returns ok=false when the pair carries no usable
// movement: same beacon, different shipyards, or two beacons in the same
// gate role.
func ResolveDirection(prev, curr *database.Beacon) (Direction, bool) {
	if prev.ID == curr.ID {
		return 0, false
	}
	if prev.ShipyardID != curr.ShipyardID {
		return 0, false
	}
	switch {
	case prev.IsFirstWhenEntering && !curr.IsFirstWhenEntering:
		return Entering, true
	case !prev.IsFirstWhenEntering && curr.IsFirstWhenEntering:
		return Leaving, true
	}
	return 0, false
}
