package ingest

import "testing"

func TestBatteryPercent(t *testing.T) {
	tests := []struct {
		name string
		mv   uint16
		max  int
		want float64
	}{
		{"full_3600", 3600, 3600, 100},
		{"full_3000", 3000, 3000, 100},
		{"half", 1800, 3600, 50},
		{"zero", 0, 3600, 0},
		{"over_reference_clamped", 3700, 3600, 100},
		{"one_decimal", 3333, 3600, 92.6},
		{"firmware_mismatch", 3600, 3000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BatteryPercent(tt.mv, tt.max)
			if got != tt.want {
				t.Errorf("BatteryPercent(%d, %d) = %v, want %v", tt.mv, tt.max, got, tt.want)
			}
		})
	}
}
