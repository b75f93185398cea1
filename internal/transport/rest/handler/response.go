package handler

import (
	"encoding/json"
	"errors"
	"examforge/internal/dsl"
	"examforge/internal/logger"
	"examforge/internal/service"
	"net/http"
)

// dslErrorBody reports an authoring or evaluation failure with its position
type dslErrorBody struct {
	Error string        `json:"error"`
	Kind  dsl.ErrorKind `json:"kind"`
	Line  int           `json:"line"`
	Col   int           `json:"col"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var dslErr *dsl.Error
	if errors.As(err, &dslErr) {
		writeJSON(w, http.StatusUnprocessableEntity, dslErrorBody{
			Error: dslErr.Msg,
			Kind:  dslErr.Kind,
			Line:  dslErr.Pos.Line,
			Col:   dslErr.Pos.Col,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrQuestionOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionEnded), errors.Is(err, service.ErrSessionExpired):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidAnswer),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidTemplate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPoolMisconfigured):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
