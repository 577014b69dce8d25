package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/bvmctl/internal/core"
)

// StateResponse is the body for long-poll results.
type StateResponse struct {
	Status string            `json:"status"`
	State  *core.DeviceState `json:"state,omitempty"`
}

// Long-poll status values.
const (
	stateStatusChanged = "changed"
	stateStatusTimeout = "timeout"
)

// handleGetState returns the current snapshot immediately.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	state := s.store.Snapshot()
	writeJSON(w, http.StatusOK, state)
}

// handleWaitState blocks until the next state change or the waiter timeout.
//
// Responses:
//   - 200 {"status":"changed","state":{...}} on a change
//   - 200 {"status":"timeout"} when evicted; the client should re-poll
//   - 503 registry_full when too many waiters are already parked
//
// The registry is bounded, so a burst of pollers degrades into explicit
// retry signals instead of unbounded server-side growth.
func (s *Server) handleWaitState(w http.ResponseWriter, r *http.Request) {
	waiter, err := s.registry.Register(time.Now())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeRegistryFull, "too many waiters, retry later")
		return
	}

	select {
	case n := <-waiter.Wait():
		switch n.Kind {
		case core.NotifySnapshot:
			writeJSON(w, http.StatusOK, StateResponse{Status: stateStatusChanged, State: &n.State})
		case core.NotifyEvicted:
			writeJSON(w, http.StatusOK, StateResponse{Status: stateStatusTimeout})
		}
	case <-r.Context().Done():
		// Client went away. The dispatcher will still deliver to the
		// buffered channel and the waiter gets collected.
	}
}

// handleStateHistory returns recent state change records from the journal.
func (s *Server) handleStateHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "state history is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("state history query failed", "error", err)
		writeInternalError(w, "failed to query state history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
