package ingest

import (
	"testing"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

func beacon(id, yard int, first bool) *database.Beacon {
	return &database.Beacon{ID: id, Number: id, ShipyardID: yard, IsFirstWhenEntering: first}
}

func TestResolveDirection(t *testing.T) {
	tests := []struct {
		name    string
		prev    *database.Beacon
		curr    *database.Beacon
		want    Direction
		wantOK  bool
	}{
		{"entering", beacon(1, 1, true), beacon(2, 1, false), Entering, true},
		{"leaving", beacon(2, 1, false), beacon(1, 1, true), Leaving, true},
		{"same_beacon", beacon(1, 1, true), beacon(1, 1, true), 0, false},
		{"cross_yard", beacon(1, 1, true), beacon(9, 2, false), 0, false},
		{"two_firsts", beacon(1, 1, true), beacon(3, 1, true), 0, false},
		{"two_seconds", beacon(2, 1, false), beacon(4, 1, false), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDirection(tt.prev, tt.curr)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("direction = %v, want %v", got, tt.want)
			}
		})
	}
}

// Swapping the gate roles of the two beacons must invert every resolved
// direction.
func TestResolveDirectionSymmetry(t *testing.T) {
	a, b := beacon(1, 1, true), beacon(2, 1, false)
	aSwap, bSwap := beacon(1, 1, false), beacon(2, 1, true)

	fwd, ok := ResolveDirection(a, b)
	if !ok {
		t.Fatal("expected a direction")
	}
	inv, ok := ResolveDirection(aSwap, bSwap)
	if !ok {
		t.Fatal("expected a direction after swap")
	}
	if fwd == inv {
		t.Errorf("direction %v did not invert after role swap", fwd)
	}
}
