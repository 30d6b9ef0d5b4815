// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/natuspati/jeopardy/internal/catalog"
	"github.com/natuspati/jeopardy/internal/store"
)

var validate = validator.New()

type createLobbyRequest struct {
	PresetID int `json:"preset_id" validate:"required,gt=0"`
}

// CreateLobbyHandler seeds a lobby from a catalog preset with the caller as lead.
func (s *APIServer) CreateLobbyHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req createLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "preset_id must be a positive integer", http.StatusBadRequest)
		return
	}

	preset, err := s.Catalog.Preset(r.Context(), req.PresetID)
	if errors.Is(err, catalog.ErrPresetNotFound) {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Errorf("failed to load preset %d: %v", req.PresetID, err)
		http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}

	lobby, err := catalog.NewLobby(preset, id)
	if err != nil {
		s.Logger.Warnf("preset %d is not playable: %v", req.PresetID, err)
		http.Error(w, "preset cannot seed a lobby", http.StatusUnprocessableEntity)
		return
	}
	created, err := s.Store.Create(r.Context(), lobby)
	if err != nil {
		s.Logger.Errorf("failed to create lobby: %v", err)
		http.Error(w, "lobby store unavailable", http.StatusServiceUnavailable)
		return
	}

	s.Logger.Infof("User %d created lobby %s from preset %d", id.UserID, created.ID, req.PresetID)
	writeJSON(w, http.StatusCreated, created)
}

// GetLobbyHandler returns the current lobby snapshot.
func (s *APIServer) GetLobbyHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	lobbyID, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		http.Error(w, "invalid lobby_id", http.StatusBadRequest)
		return
	}

	lobby, err := s.Store.Get(r.Context(), lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Errorf("failed to read lobby %s: %v", lobbyID, err)
		http.Error(w, "lobby store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, lobby)
}
