package database

import "testing"

func TestTelemetryResultDuplicate(t *testing.T) {
	c5 := int16(5)
	tests := []struct {
		name     string
		old      *int16
		incoming int16
		want     bool
	}{
		{"first_packet", nil, 5, false},
		{"same_counter", &c5, 5, true},
		{"advanced_counter", &c5, 6, false},
		{"wrapped_counter", &c5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TelemetryResult{OldCounter: tt.old}
			if got := r.Duplicate(tt.incoming); got != tt.want {
				t.Errorf("Duplicate(%d) = %v, want %v", tt.incoming, got, tt.want)
			}
		})
	}
}
