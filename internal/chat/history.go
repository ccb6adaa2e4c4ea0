package chat

import "sync"

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DefaultHistoryLimit is the number of turns kept per session.
const DefaultHistoryLimit = 10

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History keeps the most recent turns. When the limit is exceeded the
// oldest turns are dropped two at a time, one user/assistant exchange.
type History struct {
	mu    sync.Mutex
	limit int
	turns []Turn
}

func NewHistory(limit int) *History {
	if limit < 2 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append adds a turn and trims the history back under the limit.
func (h *History) Append(t Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
	for len(h.turns) > h.limit {
		n := 2
		if len(h.turns) < n {
			n = len(h.turns)
		}
		h.turns = append([]Turn(nil), h.turns[n:]...)
	}
}

// AppendExchange records a question and its answer.
func (h *History) AppendExchange(question, answer string) {
	h.Append(Turn{Role: RoleUser, Content: question})
	h.Append(Turn{Role: RoleAssistant, Content: answer})
}

// Turns returns a copy of the current turns, oldest first.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
