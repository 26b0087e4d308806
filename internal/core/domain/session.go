package domain

import "time"

// Turn is one displayed exchange in a chat session.
type Turn struct {
	Role    string
	Content string
	At      time.Time
}

// Chat roles used in Session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is per-conversation state owned by a driving adapter and passed
// explicitly into the chat service. The query pipeline only ever sees the
// current question; History is for display.
type Session struct {
	ID string

	// Sources lists URLs ingested during this session, in order.
	Sources []string

	// Ready is set once at least one ingestion has completed.
	Ready bool

	// LastQuestion is the most recent question asked.
	LastQuestion string

	History []Turn
}

// NewSession returns an empty session with the given ID.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// MarkIngested records a completed ingestion.
func (s *Session) MarkIngested(url string) {
	s.Sources = append(s.Sources, url)
	s.Ready = true
}

// Record appends a turn to the display history.
func (s *Session) Record(role, content string) {
	if role == RoleUser {
		s.LastQuestion = content
	}
	s.History = append(s.History, Turn{Role: role, Content: content, At: time.Now()})
}
