package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fredneedsausername/gatekeeper/internal/ingest"
)

type stubIngestor struct {
	calls   int
	devices []ingest.Device
}

func (s *stubIngestor) ProcessDeviceList(_ context.Context, devices []ingest.Device) {
	s.calls++
	s.devices = devices
}

func postGateway(h *GatewayHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/gateway-endpoint", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Ingest(w, req)
	return w
}

func TestGatewayEnvelopeValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"valid_empty_list", `{"data":{"value":{"device_list":[]}}}`, 200, "Processed"},
		{"valid_with_device", `{"data":{"value":{"device_list":[{"data":"00","scan_time":1}]}}}`, 200, "Processed"},
		{"not_json", `not json at all`, 400, "Invalid gateway message"},
		{"missing_data", `{"value":{"device_list":[]}}`, 400, "Invalid gateway message"},
		{"missing_value", `{"data":{"device_list":[]}}`, 400, "Invalid gateway message"},
		{"missing_device_list", `{"data":{"value":{}}}`, 400, "Invalid gateway message"},
		{"null_data", `{"data":null}`, 400, "Invalid gateway message"},
		{"null_device_list", `{"data":{"value":{"device_list":null}}}`, 400, "Invalid gateway message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubIngestor{}
			h := NewGatewayHandler(stub, false)
			w := postGateway(h, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if tt.wantStatus != http.StatusOK && stub.calls != 0 {
				t.Error("pipeline must not run on invalid envelope")
			}
		})
	}
}

func TestGatewayPassesDeviceList(t *testing.T) {
	stub := &stubIngestor{}
	h := NewGatewayHandler(stub, false)

	w := postGateway(h, `{"data":{"value":{"device_list":[{"data":"AA"},{"data":"BB"}]}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if stub.calls != 1 {
		t.Fatalf("pipeline calls = %d, want 1", stub.calls)
	}
	if len(stub.devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(stub.devices))
	}
	if stub.devices[0].Data != "AA" || stub.devices[1].Data != "BB" {
		t.Errorf("device data = %q, %q", stub.devices[0].Data, stub.devices[1].Data)
	}
}

func TestGatewayJSONMode(t *testing.T) {
	stub := &stubIngestor{}
	h := NewGatewayHandler(stub, true)

	w := postGateway(h, `{"data":{"value":{"device_list":[{"data":"AA"}]}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "Processed" {
		t.Errorf("body = %q, want %q", w.Body.String(), "Processed")
	}
	if stub.calls != 0 {
		t.Error("pipeline must not run in json mode")
	}
}
