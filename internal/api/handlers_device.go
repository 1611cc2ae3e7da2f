package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soho-enterprise/imx585-go/internal/sensor"
)

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dev.State())
}

func (h *Handlers) getControls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"controls": h.dev.Controls()})
}

func (h *Handlers) getControl(w http.ResponseWriter, r *http.Request) {
	c, err := h.dev.ControlByName(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// controlUpdate accepts either a scalar value or an element list for array
// controls; exactly one of the two must be present.
type controlUpdate struct {
	Value  *int64  `json:"value,omitempty"`
	Values []int64 `json:"values,omitempty"`
}

func (h *Handlers) setControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var upd controlUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	var vals []int64
	switch {
	case upd.Value != nil && upd.Values == nil:
		vals = []int64{*upd.Value}
	case upd.Value == nil && upd.Values != nil:
		vals = upd.Values
	default:
		badRequest(w, "exactly one of value or values must be set")
		return
	}
	if err := h.dev.SetControlByName(r.Context(), name, vals...); err != nil {
		writeError(w, err)
		return
	}
	h.publish()
	c, err := h.dev.ControlByName(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type formatResponse struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (h *Handlers) getFormat(w http.ResponseWriter, r *http.Request) {
	code, width, height := h.dev.Format()
	writeJSON(w, http.StatusOK, formatResponse{Format: code.String(), Width: width, Height: height})
}

type formatRequest struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (h *Handlers) setFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	code, ok := sensor.ParseFormatCode(req.Format)
	if !ok {
		badRequest(w, "unknown format "+req.Format)
		return
	}
	if err := h.dev.SetFormat(code, req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	h.publish()
	code, width, height := h.dev.Format()
	writeJSON(w, http.StatusOK, formatResponse{Format: code.String(), Width: width, Height: height})
}

func (h *Handlers) getModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"modes": h.dev.Modes()})
}

func (h *Handlers) startStream(w http.ResponseWriter, r *http.Request) {
	if err := h.dev.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.publish()
	writeJSON(w, http.StatusOK, h.dev.State())
}

func (h *Handlers) stopStream(w http.ResponseWriter, r *http.Request) {
	if err := h.dev.Stop(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.publish()
	writeJSON(w, http.StatusOK, h.dev.State())
}
