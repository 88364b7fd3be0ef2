package api

import (
	"net/http"

	"github.com/cubelog/cubelog/internal/model"
)

func (s *Server) handleListCubes(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	cubes, err := s.store.ListCubes(r.Context(), activeOnly)
	if err != nil {
		s.fail(w, r, "list cubes", err)
		return
	}
	if cubes == nil {
		cubes = []model.Cube{}
	}
	s.writeJSON(w, http.StatusOK, cubes)
}

func (s *Server) handleCreateCube(w http.ResponseWriter, r *http.Request) {
	var in model.CubeInput
	if err := readJSON(w, r, &in); err != nil {
		s.fail(w, r, "create cube", err)
		return
	}
	cube, err := s.store.CreateCube(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create cube", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, cube)
}

func (s *Server) handleGetCube(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get cube", err)
		return
	}
	cube, err := s.store.GetCube(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get cube", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cube)
}

func (s *Server) handleUpdateCube(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "update cube", err)
		return
	}
	var upd model.CubeUpdate
	if err := readJSON(w, r, &upd); err != nil {
		s.fail(w, r, "update cube", err)
		return
	}
	cube, err := s.store.UpdateCube(r.Context(), id, upd)
	if err != nil {
		s.fail(w, r, "update cube", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cube)
}

// handleRetireCube deactivates the cube; sessions keep their reference.
func (s *Server) handleRetireCube(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "retire cube", err)
		return
	}
	if err := s.store.RetireCube(r.Context(), id); err != nil {
		s.fail(w, r, "retire cube", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
