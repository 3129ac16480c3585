package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-blebox/internal/bridge"
)

// handleListDevices returns the status of every managed box.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.gateway.Status()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns one box with its feature states.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, ok := s.gateway.Device(id)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, bridge.Describe(dev))
}

// handleCommand runs a feature command and answers with its acknowledgement.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alias := chi.URLParam(r, "alias")

	var cmd bridge.CommandMessage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if cmd.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}
	if cmd.ID == "" {
		cmd.ID = requestID(r)
	}
	cmd.Source = "api"
	if claims := claimsFromContext(r.Context()); claims != nil {
		cmd.Source = "api:" + claims.Subject
	}

	ack := s.gateway.Execute(r.Context(), id, alias, cmd)
	writeJSON(w, ackHTTPStatus(ack), ack)
}
