package parse

import (
	"strings"

	"github.com/happypotomus/fitnesstracker/internal/model"
)

// DefaultConversationWindow caps how many turns prompts may carry.
const DefaultConversationWindow = 10

// Memory is a session-owned rolling window of chat turns. Appends retain
// every turn, but only the most recent `limit` are ever rendered into a
// prompt, bounding token cost regardless of session length. One session owns
// one Memory and mutates it through sequential calls; there is no internal
// locking.
type Memory struct {
	turns []model.ConversationTurn
	limit int
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultConversationWindow
	}
	return &Memory{limit: limit}
}

func (m *Memory) Append(turn model.ConversationTurn) {
	m.turns = append(m.turns, turn)
}

// Recent returns at most limit turns, oldest first.
func (m *Memory) Recent() []model.ConversationTurn {
	start := len(m.turns) - m.limit
	if start < 0 {
		start = 0
	}
	window := make([]model.ConversationTurn, len(m.turns)-start)
	copy(window, m.turns[start:])
	return window
}

func (m *Memory) Len() int {
	return len(m.turns)
}

func (m *Memory) Clear() {
	m.turns = nil
}

// FormatForPrompt renders the recent window as alternating role-prefixed
// lines, the shape the chat prompt embeds.
func (m *Memory) FormatForPrompt() string {
	window := m.Recent()
	lines := make([]string, 0, len(window))
	for _, turn := range window {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		speaker := "Assistant"
		if turn.FromUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+content)
	}
	return strings.Join(lines, "\n")
}
