package handler

import (
	"net/http"
	"time"

	"github.com/ekalkan/pazaryeri/internal/domain/chat"
)

type conversationResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	AgentID   string    `json:"agent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messagePayload struct {
	Body string `json:"body"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

func toConversationResponse(c *chat.Conversation) conversationResponse {
	return conversationResponse{
		ID:        c.ID,
		Status:    string(c.Status),
		AgentID:   c.AgentID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageResponse(m *chat.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         string(m.Sender),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

func (h *Handler) startChat(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	c, err := h.chats.Start(r.Context(), id.ID, id.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toConversationResponse(c))
}

// ownConversation resolves the conversation and hides other buyers'
// conversations behind a not-found.
func (h *Handler) ownConversation(r *http.Request) (*chat.Conversation, error) {
	c, err := h.chats.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if c.BuyerID != identity(r).ID {
		return nil, chat.ErrNotFound
	}
	return c, nil
}

func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	c, err := h.ownConversation(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	msgs, err := h.chats.History(r.Context(), c.ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	resp := make([]messageResponse, len(msgs))
	for i := range msgs {
		resp[i] = toMessageResponse(&msgs[i])
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) postChatMessage(w http.ResponseWriter, r *http.Request) {
	var p messagePayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	c, err := h.ownConversation(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	m, err := h.chats.Post(r.Context(), c.ID, chat.SenderBuyer, p.Body)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toMessageResponse(m))
}

type pendingConversationResponse struct {
	conversationResponse
	BuyerEmail string `json:"buyer_email"`
}

func (h *Handler) pendingChats(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chats.Pending(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make([]pendingConversationResponse, len(convs))
	for i := range convs {
		resp[i] = pendingConversationResponse{
			conversationResponse: toConversationResponse(&convs[i]),
			BuyerEmail:           convs[i].BuyerEmail,
		}
	}
	respond(w, http.StatusOK, resp)
}

type claimPayload struct {
	AgentID string `json:"agent_id"`
}

func (h *Handler) claimChat(w http.ResponseWriter, r *http.Request) {
	var p claimPayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	c, err := h.chats.Claim(r.Context(), r.PathValue("id"), p.AgentID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toConversationResponse(c))
}

func (h *Handler) replyChat(w http.ResponseWriter, r *http.Request) {
	var p messagePayload
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed JSON body")
		return
	}

	m, err := h.chats.Post(r.Context(), r.PathValue("id"), chat.SenderSupport, p.Body)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toMessageResponse(m))
}
