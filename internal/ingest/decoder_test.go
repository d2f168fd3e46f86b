package ingest

import (
	"strings"
	"testing"
)

// buildData assembles a full device data string: 16 header chars plus the
// presence payload fields.
func buildData(activator, msgType, counter, mac, rssi, flags, battery string) string {
	return "0011223344556677" + activator + msgType + counter + mac + rssi + flags + battery
}

func validData() string {
	return buildData("0001", "03", "05", "AABBCCDDEE01", "C5", "06", "0E10")
}

func TestDecodeDevice(t *testing.T) {
	t.Run("valid_frame", func(t *testing.T) {
		frame, reason := DecodeDevice(Device{Data: validData()})
		if reason != DropNone {
			t.Fatalf("reason = %q, want none", reason)
		}
		if frame.ActivatorNumber != 1 {
			t.Errorf("ActivatorNumber = %d, want 1", frame.ActivatorNumber)
		}
		if frame.PacketCounter != 5 {
			t.Errorf("PacketCounter = %d, want 5", frame.PacketCounter)
		}
		if frame.MAC != "AABBCCDDEE01" {
			t.Errorf("MAC = %q, want %q", frame.MAC, "AABBCCDDEE01")
		}
		if frame.RSSIdBm != -59 {
			t.Errorf("RSSIdBm = %d, want -59", frame.RSSIdBm)
		}
		if frame.BatteryMillivolts != 3600 {
			t.Errorf("BatteryMillivolts = %d, want 3600", frame.BatteryMillivolts)
		}
	})

	t.Run("big_endian_activator", func(t *testing.T) {
		frame, reason := DecodeDevice(Device{Data: buildData("1234", "03", "00", "aabbccddee02", "c5", "04", "0bb8")})
		if reason != DropNone {
			t.Fatalf("reason = %q, want none", reason)
		}
		if frame.ActivatorNumber != 0x1234 {
			t.Errorf("ActivatorNumber = %#x, want 0x1234", frame.ActivatorNumber)
		}
		if frame.BatteryMillivolts != 3000 {
			t.Errorf("BatteryMillivolts = %d, want 3000", frame.BatteryMillivolts)
		}
	})

	t.Run("mac_case_preserved", func(t *testing.T) {
		frame, reason := DecodeDevice(Device{Data: buildData("0001", "03", "05", "aAbBcCdDeE01", "C5", "06", "0E10")})
		if reason != DropNone {
			t.Fatalf("reason = %q, want none", reason)
		}
		if frame.MAC != "aAbBcCdDeE01" {
			t.Errorf("MAC = %q, casing must be preserved", frame.MAC)
		}
	})

	tests := []struct {
		name string
		data string
		want DropReason
	}{
		{"missing_data", "", DropMissingData},
		{"header_only", "0011223344556677", DropShortPayload},
		{"one_char_short", validData()[:len(validData())-1], DropShortPayload},
		{"wrong_message_type", buildData("0001", "04", "05", "AABBCCDDEE01", "C5", "06", "0E10"), DropWrongType},
		{"uppercase_message_type_not_03", buildData("0001", "3F", "05", "AABBCCDDEE01", "C5", "06", "0E10"), DropWrongType},
		{"missing_tlm_flag", buildData("0001", "03", "05", "AABBCCDDEE01", "C5", "02", "0E10"), DropNoTLMFlag},
		{"tlm_flag_zero", buildData("0001", "03", "05", "AABBCCDDEE01", "C5", "00", "0E10"), DropNoTLMFlag},
		{"bad_activator_hex", buildData("zz01", "03", "05", "AABBCCDDEE01", "C5", "06", "0E10"), DropMalformedHex},
		{"bad_counter_hex", buildData("0001", "03", "g5", "AABBCCDDEE01", "C5", "06", "0E10"), DropMalformedHex},
		{"bad_mac_hex", buildData("0001", "03", "05", "AABBCCDDEEZZ", "C5", "06", "0E10"), DropMalformedHex},
		{"bad_battery_hex", buildData("0001", "03", "05", "AABBCCDDEE01", "C5", "06", "0Ezz"), DropMalformedHex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, reason := DecodeDevice(Device{Data: tt.data})
			if reason != tt.want {
				t.Errorf("reason = %q, want %q", reason, tt.want)
			}
			if frame != nil {
				t.Error("frame should be nil on drop")
			}
		})
	}

	t.Run("tlm_flag_with_other_bits", func(t *testing.T) {
		// 0x04 set alongside unrelated bits still passes.
		_, reason := DecodeDevice(Device{Data: buildData("0001", "03", "05", "AABBCCDDEE01", "C5", "FF", "0E10")})
		if reason != DropNone {
			t.Errorf("reason = %q, want none", reason)
		}
	})

	t.Run("extra_trailing_data_ignored", func(t *testing.T) {
		frame, reason := DecodeDevice(Device{Data: validData() + strings.Repeat("AB", 8)})
		if reason != DropNone {
			t.Fatalf("reason = %q, want none", reason)
		}
		if frame.BatteryMillivolts != 3600 {
			t.Errorf("BatteryMillivolts = %d, want 3600", frame.BatteryMillivolts)
		}
	})
}
