package api

import (
	"net/http"

	"github.com/cubelog/cubelog/internal/model"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.fail(w, r, "get settings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

type settingsRequest struct {
	WCAID string `json:"wca_id"`
}

// handleSaveSettings checks the WCA ID against the official API before storing it with the competitor's name.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := readJSON(w, r, &req); err != nil {
		s.fail(w, r, "save settings", err)
		return
	}
	person, err := s.ranking.LookupWCAPerson(r.Context(), req.WCAID)
	if err != nil {
		s.fail(w, r, "save settings", err)
		return
	}
	settings, err := s.store.SaveSettings(r.Context(), model.UserSettings{WCAID: person.ID, WCAName: person.Name})
	if err != nil {
		s.fail(w, r, "save settings", err)
		return
	}
	s.logger.Info("wca id linked", "wca_id", settings.WCAID, "name", settings.WCAName)
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleClearSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearSettings(r.Context()); err != nil {
		s.fail(w, r, "clear settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
