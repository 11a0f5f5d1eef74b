package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/jrozner/roomboard/web/messaging"
	mw "github.com/jrozner/roomboard/web/middleware"
	"github.com/jrozner/roomboard/web/model"
)

type messageView struct {
	model.Message
	Sender         *model.Profile `json:"sender,omitempty"`
	SenderUsername string         `json:"sender_username,omitempty"`
}

func newMessageView(message model.Message) messageView {
	view := messageView{Message: message}
	if message.Sender != nil {
		profile := message.Sender.Profile()
		view.Sender = &profile
		view.SenderUsername = profile.Username
	}

	return view
}

type sendMessageRequest struct {
	ReceiverID  flexID `json:"receiver_id"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	RelatedType string `json:"related_type"`
	RelatedID   flexID `json:"related_id"`
}

type contactOwnerRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body sendMessageRequest
	err := decodeJSON(r, &body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.messages.Send(r.Context(), messaging.SendRequest{
		SenderID:   mw.UserID(r.Context()),
		ReceiverID: uint64(body.ReceiverID),
		Subject:    body.Subject,
		Body:       body.Message,
		Related:    model.NewRelated(body.RelatedType, uint64(body.RelatedID)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Add("Location", fmt.Sprintf("/messages/%d", id))
	writeJSON(w, r, http.StatusCreated, statusResponse{Message: "Message sent successfully", ID: id})
}

func (h *Handler) contactOwner(w http.ResponseWriter, r *http.Request) {
	listingID, err := urlID(r, "listingID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body contactOwnerRequest
	err = decodeJSON(r, &body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.messages.ContactOwner(r.Context(), mw.UserID(r.Context()), chi.URLParam(r, "kind"), listingID, body.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Add("Location", fmt.Sprintf("/messages/%d", id))
	writeJSON(w, r, http.StatusCreated, statusResponse{Message: "Message sent to listing owner", ID: id})
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.messages.ListConversations(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string][]messaging.Conversation{"conversations": conversations})
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	otherID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	scope := model.ParseReadScope(query.Get("related_type"), query.Get("related_id"))

	messages, err := h.messages.ConversationMessages(r.Context(), mw.UserID(r.Context()), otherID, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, newMessageView(message))
	}

	writeJSON(w, r, http.StatusOK, map[string][]messageView{"messages": views})
}

func (h *Handler) markConversationRead(w http.ResponseWriter, r *http.Request) {
	otherID, err := urlID(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	scope := model.ParseReadScope(query.Get("related_type"), query.Get("related_id"))

	affected, err := h.messages.MarkConversationRead(r.Context(), mw.UserID(r.Context()), otherID, scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, statusResponse{Message: "Conversation marked as read", AffectedCount: &affected})
}

func (h *Handler) getMessage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	message, err := h.messages.GetMessage(r.Context(), mw.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, newMessageView(message))
}

func (h *Handler) markMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	affected, err := h.messages.MarkMessageRead(r.Context(), mw.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, statusResponse{Message: "Message marked as read", AffectedCount: &affected})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messages.UnreadCount(r.Context(), mw.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]int64{"unreadCount": count})
}
