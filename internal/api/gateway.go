package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/fredneedsausername/gatekeeper/internal/ingest"
)

// Ingestor is the pipeline surface the gateway endpoint drives.
type Ingestor interface {
	ProcessDeviceList(ctx context.Context, devices []ingest.Device)
}

// GatewayHandler accepts aggregated scan reports from the gateway.
// The gateway is trusted on the private network: no authentication here.
type GatewayHandler struct {
	pipeline Ingestor
	jsonMode bool
}

func NewGatewayHandler(pipeline Ingestor, jsonMode bool) *GatewayHandler {
	return &GatewayHandler{pipeline: pipeline, jsonMode: jsonMode}
}

// envelope mirrors the gateway's three nesting levels. Pointers distinguish
// a missing level from an empty one.
type envelope struct {
	Data *struct {
		Value *struct {
			DeviceList []ingest.Device `json:"device_list"`
		} `json:"value"`
	} `json:"data"`
}

const (
	gatewayOK      = "Processed"
	gatewayInvalid = "Invalid gateway message"
)

// Ingest validates the envelope and runs the device list through the
// pipeline. Per-device failures never reach the gateway; the contract is
// best-effort ingestion with a fixed success body.
func (h *GatewayHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, gatewayInvalid)
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil ||
		env.Data == nil || env.Data.Value == nil || env.Data.Value.DeviceList == nil {
		writeText(w, http.StatusBadRequest, gatewayInvalid)
		return
	}

	if h.jsonMode {
		// Capture-debug mode: show the envelope, touch nothing.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			hlog.FromRequest(r).Info().Msg(pretty.String())
		}
		writeText(w, http.StatusOK, gatewayOK)
		return
	}

	h.pipeline.ProcessDeviceList(r.Context(), env.Data.Value.DeviceList)
	writeText(w, http.StatusOK, gatewayOK)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// Routes registers the gateway endpoint.
func (h *GatewayHandler) Routes(r chi.Router) {
	r.Post("/gateway-endpoint", h.Ingest)
}
