package models

// ChatMessage is one turn of an assistant conversation. Outlets is only set
// on assistant turns and preserves the server's relevance order.
type ChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Outlets []Outlet `json:"outlets,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatbotResponse is the upstream /chatbot/query payload. The session_id
// threads follow-up queries into the same server-side conversation.
type ChatbotResponse struct {
	Answer          string   `json:"answer"`
	RelevantOutlets []Outlet `json:"relevant_outlets"`
	SessionID       string   `json:"session_id"`
}

// Conversation is the transcript view returned to API consumers.
type Conversation struct {
	ID          string        `json:"id"`
	Messages    []ChatMessage `json:"messages"`
	Suggestions []string      `json:"suggestions"`
	Pending     bool          `json:"pending"`
}
