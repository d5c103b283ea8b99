package api

import (
	"encoding/json"
	"net/http"

	"github.com/obitec/bodyway/internal/channel"
)

// ChannelHandler exposes the method channel over HTTP.
type ChannelHandler struct {
	handler *channel.Handler
}

// NewChannelHandler creates a ChannelHandler dispatching to h.
func NewChannelHandler(h *channel.Handler) *ChannelHandler {
	return &ChannelHandler{handler: h}
}

// ServeHTTP handles POST /api/channel/camera_channel with a MethodCall body.
// Call failures are reported in the Result with status 200.
func (h *ChannelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var call channel.MethodCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if call.Method == "" {
		writeError(w, http.StatusBadRequest, "Method is required")
		return
	}

	writeJSON(w, http.StatusOK, h.handler.Handle(call))
}
