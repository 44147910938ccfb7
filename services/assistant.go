package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/utils"
)

// DefaultWelcomeMessage seeds every new conversation.
const DefaultWelcomeMessage = "Hello! I can help you find information about Subway outlets in Kuala Lumpur. " +
	"You can ask me about locations, opening hours, or even questions like " +
	"'Which outlet closes the latest?' or 'How many outlets are in Bangsar?'"

const fallbackErrorMessage = "Sorry, I encountered an error while processing your request. Please try again."

// DefaultSuggestions is the prompt set shown before any context exists.
var DefaultSuggestions = []string{
	"Which Subway outlets are in Bangsar?",
	"Is Subway KLCC open on Sundays?",
	"Which outlet closes the latest?",
	"How many Subway outlets are in KL?",
}

// OutletSelectedFunc is the shared selection callback: the same hook fired
// when a user picks an outlet from a list or a map marker.
type OutletSelectedFunc func(models.Outlet)

// AssistantSession manages one conversation lifecycle against the upstream
// chatbot: a linear transcript, the server-issued session token threaded
// into every follow-up query, and context-derived suggestion prompts.
//
// Submits are serialized: at most one query is in flight at a time, and a
// submit arriving while one is pending is rejected rather than queued.
type AssistantSession struct {
	upstream         *UpstreamClient
	onOutletSelected OutletSelectedFunc

	mu          sync.Mutex
	transcript  []models.ChatMessage
	sessionID   string
	suggestions []string
	pending     bool
	generation  uint64
}

// NewAssistantSession seeds a fresh conversation. onOutletSelected may be
// nil when no consumer cares about selections.
func NewAssistantSession(upstream *UpstreamClient, onOutletSelected OutletSelectedFunc) *AssistantSession {
	return &AssistantSession{
		upstream:         upstream,
		onOutletSelected: onOutletSelected,
		transcript:       []models.ChatMessage{{Role: models.RoleAssistant, Content: DefaultWelcomeMessage}},
		suggestions:      DefaultSuggestions,
	}
}

// Submit sends a user query to the upstream chatbot. It returns false when
// the query was rejected (blank text, or a prior query still pending) and
// true when a turn completed, successfully or not. Upstream failures append
// a fallback assistant message instead of propagating; the session stays
// usable for the next turn.
func (s *AssistantSession) Submit(ctx context.Context, text string) bool {
	query := strings.TrimSpace(text)
	if query == "" {
		return false
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return false
	}
	s.pending = true
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.RoleUser, Content: query})
	sessionID := s.sessionID
	gen := s.generation
	s.mu.Unlock()

	response, err := s.upstream.QueryChatbot(ctx, query, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The conversation was cleared while the query was in flight; its
	// result belongs to a dead lifecycle and is dropped whole.
	if s.generation != gen {
		return true
	}
	s.pending = false

	if err != nil {
		utils.SafeError("Chatbot query failed: %v", err)
		s.transcript = append(s.transcript, models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: fallbackErrorMessage,
		})
		s.suggestions = regenerateSuggestions(s.transcript)
		return true
	}

	s.transcript = append(s.transcript, models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: response.Answer,
		Outlets: response.RelevantOutlets,
	})
	if response.SessionID != "" {
		s.sessionID = response.SessionID
	}
	s.suggestions = regenerateSuggestions(s.transcript)

	if len(response.RelevantOutlets) > 0 && s.onOutletSelected != nil {
		s.onOutletSelected(response.RelevantOutlets[0])
	}

	return true
}

// Clear ends the current lifecycle: the server-side session is deleted
// best-effort, then local state resets to the seeded welcome message. A
// query still in flight will find its generation stale and discard itself.
func (s *AssistantSession) Clear(ctx context.Context) {
	s.mu.Lock()
	sessionID := s.sessionID
	s.transcript = []models.ChatMessage{{Role: models.RoleAssistant, Content: DefaultWelcomeMessage}}
	s.sessionID = ""
	s.suggestions = DefaultSuggestions
	s.pending = false
	s.generation++
	s.mu.Unlock()

	if sessionID != "" {
		if err := s.upstream.DeleteChatSession(ctx, sessionID); err != nil {
			utils.SafeWarn("Deleting chat session %s failed: %v", utils.MaskID(sessionID), err)
		}
	}
}

// Transcript returns a copy of the conversation so far.
func (s *AssistantSession) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Suggestions returns the current follow-up prompt set.
func (s *AssistantSession) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

// SessionID returns the upstream session token, empty before the first
// successful exchange.
func (s *AssistantSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Pending reports whether a query is currently in flight.
func (s *AssistantSession) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// suggestionRule maps a conversation-context predicate to the prompts it
// produces. Rules are evaluated top-down; the first match wins.
type suggestionRule struct {
	matches func(lastUser string, lastAssistant *models.ChatMessage) bool
	prompts func(lastUser string, lastAssistant *models.ChatMessage) []string
}

var suggestionRules = []suggestionRule{
	{
		matches: func(_ string, assistant *models.ChatMessage) bool {
			return assistant != nil && len(assistant.Outlets) > 0
		},
		prompts: func(_ string, assistant *models.ChatMessage) []string {
			name := assistant.Outlets[0].Name
			return []string{
				fmt.Sprintf("What are the operating hours for %s?", name),
				fmt.Sprintf("Where exactly is %s located?", name),
				fmt.Sprintf("Is %s open on weekends?", name),
			}
		},
	},
	{
		matches: func(user string, _ *models.ChatMessage) bool {
			return strings.Contains(user, "open") || strings.Contains(user, "hour")
		},
		prompts: func(_ string, _ *models.ChatMessage) []string {
			return []string{
				"Which outlet is open the latest?",
				"Are there any 24-hour Subway outlets?",
				"Which outlets are open on Sundays?",
			}
		},
	},
	{
		matches: func(user string, _ *models.ChatMessage) bool {
			return strings.Contains(user, "where") || strings.Contains(user, "location")
		},
		prompts: func(_ string, _ *models.ChatMessage) []string {
			return []string{
				"How many outlets are in Kuala Lumpur?",
				"Which outlet is closest to KLCC?",
				"Are there any Subway outlets in Bangsar?",
			}
		},
	},
	{
		matches: func(_ string, _ *models.ChatMessage) bool { return true },
		prompts: func(_ string, _ *models.ChatMessage) []string {
			return []string{
				"Which Subway outlet is closest to me?",
				"What are the busiest Subway locations?",
				"Tell me about Subway outlets in KL",
				"Which outlet has the best reviews?",
			}
		},
	},
}

// regenerateSuggestions derives follow-up prompts from the transcript tail:
// the most recent user message and most recent assistant message. It only
// runs once the transcript has grown past the seed message.
func regenerateSuggestions(transcript []models.ChatMessage) []string {
	if len(transcript) <= 1 {
		return DefaultSuggestions
	}

	var lastUser string
	var lastAssistant *models.ChatMessage
	for i := len(transcript) - 1; i >= 0; i-- {
		msg := transcript[i]
		if lastUser == "" && msg.Role == models.RoleUser {
			lastUser = msg.Content
		}
		if lastAssistant == nil && msg.Role == models.RoleAssistant {
			m := msg
			lastAssistant = &m
		}
		if lastUser != "" && lastAssistant != nil {
			break
		}
	}

	lowered := strings.ToLower(lastUser)
	for _, rule := range suggestionRules {
		if rule.matches(lowered, lastAssistant) {
			return rule.prompts(lowered, lastAssistant)
		}
	}
	return DefaultSuggestions
}
