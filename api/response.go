package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"leadprep/services"
	"leadprep/storage"
)

// ErrorResponse is the error envelope of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("[api] JSON encode error: %v", err)
	}
}

func (s *Server) error(w http.ResponseWriter, status int, message string) {
	s.json(w, status, ErrorResponse{Error: message})
}

// fail maps err onto a status code. Unknown errors are logged and hidden
// behind a generic 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.error(w, http.StatusNotFound, "file not found")
	case errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrInvalidEndpoint):
		s.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrMalformedTable):
		s.error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("[api] internal error: %v", err)
		s.error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.error(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
