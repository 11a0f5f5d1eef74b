package handlers

import (
	"net/http"

	mw "github.com/jrozner/roomboard/web/middleware"
)

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.User(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.accounts.User(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{"user": user.Profile()})
}
