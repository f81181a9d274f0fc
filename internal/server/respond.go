package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"civicsnap/pkg/types"
)

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return types.NewValidationError("body", "invalid JSON body")
	}
	return nil
}

// writeError maps err to a status. Only validation messages reach the
// client verbatim; everything else gets a generic message.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}

	s.writeJSON(w, status, &types.ErrorResponse{Error: msg})
}

func errorStatus(err error) (int, string) {
	var verr *types.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "not allowed"
	case errors.Is(err, types.ErrReportNotFound):
		return http.StatusNotFound, "Report not found"
	case errors.Is(err, types.ErrAlreadyNotified):
		return http.StatusConflict, "Report was already sent to the city"
	case errors.Is(err, types.ErrConfiguration):
		return http.StatusInternalServerError, "server configuration error"
	case errors.Is(err, types.ErrUpstream):
		return http.StatusInternalServerError, "upstream service failed, please try again"
	case errors.Is(err, types.ErrStorage):
		return http.StatusInternalServerError, "storage failure, please try again"
	}

	return http.StatusInternalServerError, "internal server error"
}
