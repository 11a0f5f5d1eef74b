package handlers

import (
	"net/http"

	"github.com/jrozner/roomboard/web/auth"
	"github.com/jrozner/roomboard/web/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    *model.Profile `json:"user,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	err := decodeJSON(r, &body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := h.accounts.Register(r.Context(), auth.Registration{
		Username: body.Username,
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile := user.Profile()
	writeJSON(w, r, http.StatusCreated, tokenResponse{Message: "User created successfully", Token: token, User: &profile})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	err := decodeJSON(r, &body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := h.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile := user.Profile()
	writeJSON(w, r, http.StatusOK, tokenResponse{Message: "Login successful", Token: token, User: &profile})
}
