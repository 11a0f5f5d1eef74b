package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog/hlog"

	"github.com/jrozner/roomboard/web/apperr"
)

type errorResponse struct {
	Message string      `json:"message"`
	Code    apperr.Code `json:"code"`
	Field   string      `json:"field,omitempty"`
}

type statusResponse struct {
	Message       string `json:"message"`
	ID            uint64 `json:"id,omitempty"`
	AffectedCount *int64 `json:"affectedCount,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("unable to write response")
	}
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeAlreadyExists:
		return http.StatusConflict
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code. Internal details never reach the
// client; they are logged instead.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorResponse{
		Message: "Internal server error",
		Code:    apperr.CodeInternal,
	}

	e, ok := apperr.As(err)
	if ok {
		status = statusFor(e.Code)
		if status != http.StatusInternalServerError {
			body.Message = e.Message
			body.Code = e.Code
			body.Field = e.Field
		}
	}

	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}

	writeJSON(w, r, status, body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperr.Validation("body", "request body is required")
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "malformed request body", err)
	}

	return nil
}

func urlID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, fmt.Sprintf("invalid %s", name))
	}

	return id, nil
}

// flexID accepts ids sent either as JSON numbers or as numeric strings, as
// form-driven clients tend to send them.
type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}

	*f = flexID(id)
	return nil
}
