package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/bvmctl/internal/core"
	"github.com/nerrad567/bvmctl/internal/monitor"
)

// Command request bodies. One shape per command kind, matching the MQTT
// payloads so clients can share encoders.
type toggleRequest struct {
	Button string `json:"button"`
}

type infoRequest struct {
	Code int `json:"code"`
}

type knobRequest struct {
	Knob      string `json:"knob"`
	Direction string `json:"direction"`
	Factor    int    `json:"factor"`
	Ticks     int    `json:"ticks"`
}

// handleToggleCommand queues a latching button press.
func (s *Server) handleToggleCommand(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := monitor.NewToggleCommand(req.Button)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.enqueueCommand(w, cmd)
}

// handleInfoCommand queues a numbered info button press.
func (s *Server) handleInfoCommand(w http.ResponseWriter, r *http.Request) {
	var req infoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := monitor.NewInfoCommand(req.Code)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.enqueueCommand(w, cmd)
}

// handleKnobCommand queues a rotary knob adjustment.
func (s *Server) handleKnobCommand(w http.ResponseWriter, r *http.Request) {
	var req knobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dir, err := monitor.ParseDirection(req.Direction)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	cmd, err := monitor.NewKnobCommand(req.Knob, dir, req.Factor, req.Ticks)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	s.enqueueCommand(w, cmd)
}

// enqueueCommand pushes a validated command and writes the terminal response.
// A full queue is an explicit backpressure signal, not an error to hide.
func (s *Server) enqueueCommand(w http.ResponseWriter, cmd core.Command) {
	if err := s.queue.Push(cmd); err != nil {
		if errors.Is(err, core.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, ErrCodeQueueFull, "command queue is full, retry later")
			return
		}
		s.logger.Error("failed to queue command", "error", err)
		writeInternalError(w, "failed to queue command")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "queued",
		"queue_length": s.queue.Len(),
	})
}
