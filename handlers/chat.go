package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/services"
	"github.com/OutletRadar/outlet-api/utils"
)

// ChatHandler hosts assistant conversations. Each conversation gets its own
// AssistantSession; outlet selections coming back from the assistant are
// published on the map hub, the same event a list pick produces.
type ChatHandler struct {
	Upstream *services.UpstreamClient
	Hub      *MapHub

	mu            sync.RWMutex
	conversations map[string]*services.AssistantSession
}

func NewChatHandler(upstream *services.UpstreamClient, hub *MapHub) *ChatHandler {
	return &ChatHandler{
		Upstream:      upstream,
		Hub:           hub,
		conversations: make(map[string]*services.AssistantSession),
	}
}

func (h *ChatHandler) get(id string) (*services.AssistantSession, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.conversations[id]
	return session, ok
}

// CreateConversation starts a fresh conversation and returns its id along
// with the seeded transcript and default suggestions.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	id := uuid.NewString()

	session := services.NewAssistantSession(h.Upstream, func(outlet models.Outlet) {
		h.Hub.PublishOutletSelected(outlet)
	})

	h.mu.Lock()
	h.conversations[id] = session
	h.mu.Unlock()

	utils.LogChatAction("Conversation created", id, "")

	c.JSON(http.StatusCreated, models.Conversation{
		ID:          id,
		Messages:    session.Transcript(),
		Suggestions: session.Suggestions(),
	})
}

// GetConversation returns the current transcript and suggestions.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id := c.Param("id")

	session, ok := h.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.JSON(http.StatusOK, models.Conversation{
		ID:          id,
		Messages:    session.Transcript(),
		Suggestions: session.Suggestions(),
		Pending:     session.Pending(),
	})
}

type submitRequest struct {
	Text string `json:"text"`
}

// SubmitMessage forwards one user query to the assistant. A blank query or
// a query arriving while another is in flight gets a 409; the transcript is
// untouched and no upstream call is made.
func (h *ChatHandler) SubmitMessage(c *gin.Context) {
	id := c.Param("id")

	session, ok := h.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !session.Submit(c.Request.Context(), req.Text) {
		c.JSON(http.StatusConflict, gin.H{"error": "Query rejected: empty text or a reply is still pending"})
		return
	}

	c.JSON(http.StatusOK, models.Conversation{
		ID:          id,
		Messages:    session.Transcript(),
		Suggestions: session.Suggestions(),
	})
}

// ClearConversation resets a conversation to its seeded state, deleting the
// upstream session best-effort.
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	id := c.Param("id")

	session, ok := h.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	session.Clear(c.Request.Context())
	utils.LogChatAction("Conversation cleared", id, "")

	c.JSON(http.StatusOK, models.Conversation{
		ID:          id,
		Messages:    session.Transcript(),
		Suggestions: session.Suggestions(),
	})
}
