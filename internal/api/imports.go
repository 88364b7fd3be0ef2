package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cubelog/cubelog/internal/importer"
	"github.com/cubelog/cubelog/internal/model"
)

// readUpload parses the multipart "file" field into sessions.
func readUpload(w http.ResponseWriter, r *http.Request) ([]importer.Session, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, fmt.Errorf("%w: parse upload: %v", model.ErrInvalidInput, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file field is required", model.ErrInvalidInput)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close of the upload.
			_ = cerr
		}
	}()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", model.ErrInvalidInput, err)
	}
	return importer.Parse(header.Filename, data)
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	sessions, err := readUpload(w, r)
	if err != nil {
		s.fail(w, r, "import preview", err)
		return
	}
	s.writeJSON(w, http.StatusOK, importer.Preview(sessions))
}

func importOptions(r *http.Request) (importer.Options, error) {
	opts := importer.Options{
		Event:      strings.TrimSpace(r.FormValue("event")),
		ForceEvent: r.FormValue("force_event") == "true",
	}
	if opts.Event == "" {
		opts.Event = model.DefaultEvent
	}
	if only := r.FormValue("only"); only != "" {
		for _, key := range strings.Split(only, ",") {
			if key = strings.TrimSpace(key); key != "" {
				opts.Only = append(opts.Only, key)
			}
		}
	}
	if date := r.FormValue("date"); date != "" {
		parsed, err := model.ParseDate(date)
		if err != nil {
			return opts, err
		}
		opts.Date = parsed
	}
	if raw := r.FormValue("cube_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: bad cube_id %q", model.ErrInvalidInput, raw)
		}
		opts.CubeID = &id
	}
	return opts, nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sessions, err := readUpload(w, r)
	if err != nil {
		s.fail(w, r, "import", err)
		return
	}
	opts, err := importOptions(r)
	if err != nil {
		s.fail(w, r, "import", err)
		return
	}
	res, err := s.importer.Import(r.Context(), sessions, opts)
	if err != nil {
		s.fail(w, r, "import", err)
		return
	}
	s.logger.Info("imported", "sessions", len(res.Sessions), "solves", res.TotalSolves, "skipped", res.Skipped)
	s.writeJSON(w, http.StatusCreated, res)
}
