package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leadprep/models"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.Files.ListProcessed(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

type uploadResponse struct {
	File   string                `json:"file"`
	Report *models.ProcessReport `json:"report,omitempty"`
}

// uploadFile takes a multipart form with a required "name" and a "file".
// With ?process=true the upload is reshaped straight away.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.MaxUploadBytes {
		s.error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit))
			return
		}
		s.error(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	key, err := s.Files.Upload(r.Context(), r.FormValue("name"), file)
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := uploadResponse{File: key}
	if process, _ := strconv.ParseBool(r.URL.Query().Get("process")); process {
		report, err := s.Reshaper.Process(r.Context(), key)
		if err != nil {
			s.fail(w, err)
			return
		}
		resp.Report = report
	}
	s.json(w, http.StatusCreated, resp)
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := s.Files.Open(r.Context(), name)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("[api] streaming %s: %v", name, err)
	}
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.Files.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) processFile(w http.ResponseWriter, r *http.Request) {
	report, err := s.Reshaper.Process(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, report)
}

type pushRequest struct {
	WebhookURL string `json:"webhook_url"`
}

type pushFailure struct {
	Line  int    `json:"line"`
	Email string `json:"email"`
	Error string `json:"error"`
}

type pushResponse struct {
	RunID    string        `json:"run_id"`
	Pushed   int           `json:"pushed"`
	Failed   int           `json:"failed"`
	Failures []pushFailure `json:"failures"`
}

func (s *Server) pushFile(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.WebhookURL == "" {
		s.error(w, http.StatusBadRequest, "webhook_url is required")
		return
	}

	res, err := s.Pusher.Push(r.Context(), chi.URLParam(r, "name"), req.WebhookURL, nil)
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := pushResponse{
		RunID:    res.RunID,
		Pushed:   res.Succeeded,
		Failed:   res.Failed(),
		Failures: make([]pushFailure, 0, len(res.Failures)),
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, pushFailure{
			Line:  f.Line,
			Email: f.Row[models.ColEmail],
			Error: f.Err.Error(),
		})
	}
	s.json(w, http.StatusOK, resp)
}

func (s *Server) summarizeFile(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Summary.Summarize(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, sum)
}

func (s *Server) listPushes(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		s.error(w, http.StatusNotFound, "push log is disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.History.Recent(r.Context(), r.URL.Query().Get("file"), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.json(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}
