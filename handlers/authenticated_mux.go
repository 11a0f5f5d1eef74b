package handlers

import (
	"net/http"

	"github.com/go-chi/chi"
)

func RegisterAuthenticated(mux chi.Router, h *Handler, limiter func(http.Handler) http.Handler) {
	mux.Get("/me", h.getMe)
	mux.Route("/messages", func(r chi.Router) {
		r.Get("/", h.listConversations)
		r.With(limiter).Post("/", h.sendMessage)
		r.Get("/unread-count", h.unreadCount)
		r.Get("/conversation/{userID}", h.getConversation)
		r.Put("/conversation/{userID}/read", h.markConversationRead)
		r.With(limiter).Post("/contact/{kind}/{listingID}", h.contactOwner)
		r.Get("/{id}", h.getMessage)
		r.Put("/{id}/read", h.markMessageRead)
	})
}
