package handlers

import (
	"github.com/jrozner/roomboard/web/auth"
	"github.com/jrozner/roomboard/web/messaging"
)

type Handler struct {
	messages *messaging.Service
	accounts *auth.Accounts
}

func New(messages *messaging.Service, accounts *auth.Accounts) *Handler {
	return &Handler{
		messages: messages,
		accounts: accounts,
	}
}
