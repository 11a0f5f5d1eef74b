package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/jrozner/roomboard/web/apperr"
)

type errorBody struct {
	Message string      `json:"message"`
	Code    apperr.Code `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code apperr.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: message, Code: code})
}
