package ingest

import "math"

// BatteryPercent converts a reported voltage to a percentage of the
// full-charge reference, clamped to 0–100 and rounded to one decimal.
func BatteryPercent(millivolts uint16, maxMillivolts int) float64 {
	pct := float64(millivolts) / float64(maxMillivolts) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}
