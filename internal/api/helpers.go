// Package api implements the HTTP control surface for the sensor daemon.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	dev    Device
	events EventBus
}

// Device is the interface the handlers use to drive the sensor.
// Implemented by *sensor.Sensor.
type Device interface {
	State() sensor.Status
	Controls() []sensor.ControlInfo
	ControlByName(name string) (sensor.ControlInfo, error)
	SetControlByName(ctx context.Context, name string, vals ...int64) error
	Format() (sensor.FormatCode, int, int)
	SetFormat(code sensor.FormatCode, width, height int) error
	Modes() []sensor.ModeInfo
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Streaming() bool
}

// EventBus is the interface for subscribing to status change events.
type EventBus interface {
	Subscribe(id string) <-chan sensor.Status
	Unsubscribe(id string)
	Publish(st sensor.Status)
}

// publish pushes a fresh status snapshot to SSE subscribers after a
// successful mutation.
func (h *Handlers) publish() {
	if h.events != nil {
		h.events.Publish(h.dev.State())
	}
}

type apiError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps device errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sensor.ErrUnknownControl):
		status = http.StatusNotFound
	case errors.Is(err, sensor.ErrInvalidArgument), errors.Is(err, sensor.ErrBadConfig):
		status = http.StatusBadRequest
	case errors.Is(err, sensor.ErrControlGrabbed),
		errors.Is(err, sensor.ErrControlInactive),
		errors.Is(err, sensor.ErrControlReadOnly):
		status = http.StatusConflict
	}
	writeJSON(w, status, apiError{Status: status, Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Status: http.StatusBadRequest, Error: msg})
}
