package core

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the assistant.
	RoleAssistant Role = "assistant"
)

// Message is one entry of the session's conversation log. Assistant messages
// carry the TurnID of the turn that produced them so the service can pick the
// replies belonging to the current turn only.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	TurnID  int    `json:"turn_id,omitempty"`
}

// DefaultMaxMessages is the retained-window cap applied by AppendMessage.
const DefaultMaxMessages = 10

// maxAssistantMessages is the narrower second cap applied to assistant-role
// messages inside the retained window.
const maxAssistantMessages = 2

// AppendMessage appends a message to the state's log applying the full
// message discipline:
//
//  1. An immediate duplicate (same role and content as the last entry) is a
//     no-op, suppressing echoes from retried or no-op steps.
//  2. Assistant messages are tagged with the current TurnCounter.
//  3. The log is trimmed from the front to the most recent DefaultMaxMessages.
//  4. Within the retained window at most two assistant messages survive; older
//     assistant messages are dropped, non-assistant messages are untouched.
//
// Both caps are applied, in that order, on every append.
func (s *SessionState) AppendMessage(msg Message) {
	if n := len(s.Messages); n > 0 {
		last := s.Messages[n-1]
		if last.Role == msg.Role && last.Content == msg.Content {
			return
		}
	}
	if msg.Role == RoleAssistant {
		msg.TurnID = s.TurnCounter
	}
	s.Messages = append(s.Messages, msg)
	if len(s.Messages) > DefaultMaxMessages {
		s.Messages = append([]Message(nil), s.Messages[len(s.Messages)-DefaultMaxMessages:]...)
	}
	s.trimAssistantWindow()
}

// trimAssistantWindow drops all but the most recent two assistant messages
// from the retained window, preserving the relative order of everything else.
func (s *SessionState) trimAssistantWindow() {
	assistants := 0
	for _, m := range s.Messages {
		if m.Role == RoleAssistant {
			assistants++
		}
	}
	if assistants <= maxAssistantMessages {
		return
	}
	drop := assistants - maxAssistantMessages
	kept := make([]Message, 0, len(s.Messages)-drop)
	for _, m := range s.Messages {
		if m.Role == RoleAssistant && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, m)
	}
	s.Messages = kept
}

// LastUserMessage returns the content of the most recent user message, or the
// empty string if the log holds none.
func (s *SessionState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// AssistantMessagesForTurn returns the assistant messages tagged with the
// given turn, in log order.
func (s *SessionState) AssistantMessagesForTurn(turnID int) []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Role == RoleAssistant && m.TurnID == turnID {
			out = append(out, m)
		}
	}
	return out
}
