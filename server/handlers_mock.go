package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/server/mockusers"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, oauth2.HealthResponse{
			Status:    "OK",
			Message:   "Mock OAuth Server is running",
			Providers: []string{"google", "github"},
			Timestamp: s.nowTime().UTC().Format(isoMillis),
		})
	}
}

func (s *Server) ListMockUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.users.List(r.PathValue("provider"))
		if errors.Is(err, mockusers.ErrProviderNotFound) {
			writeJSONError(w, "Provider not found", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// CreateMockUserHandler adds a profile; an unknown provider is created on the fly.
func (s *Server) CreateMockUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := mockusers.Profile{}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		created, err := s.users.Create(r.PathValue("provider"), data)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, created)
	}
}
