package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

// subscribeEvents streams device status snapshots as Server-Sent Events.
// A "status" event is sent on connect and after every successful mutation
// until the client disconnects.
func (h *Handlers) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	// Snapshot first so a new client never starts blind.
	sendStatusEvent(w, flusher, h.dev.State())

	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return
			}
			sendStatusEvent(w, flusher, st)
		case <-r.Context().Done():
			return
		}
	}
}

func sendStatusEvent(w http.ResponseWriter, flusher http.Flusher, st sensor.Status) {
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
	flusher.Flush()
}
