package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mealrounds/cartsync/internal/broadcast"
)

// events streams the real-time feed over Server-Sent Events.
//
// The first two events on every connection are full snapshots of the current
// carts and history, queued atomically at subscription so no mutation can
// slip in between. After that the observer receives carts_updated and
// history_updated events for every mutation, each carrying the complete
// collection rather than a diff.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	obs := s.engine.Subscribe()
	if obs == nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer obs.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, open := <-obs.Events():
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				slog.Debug("observer write failed, closing", "observer", obs.ID(), "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSE frames one event: the broadcast event name followed by the
// collection payload as a single JSON data line.
func writeSSE(w http.ResponseWriter, ev broadcast.Event) error {
	var payload any
	switch ev.Type {
	case broadcast.EventCartsUpdated:
		payload = ev.Carts
	case broadcast.EventHistoryUpdated:
		payload = ev.History
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
