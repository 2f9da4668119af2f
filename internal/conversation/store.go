// Package conversation holds the in-memory transcript of a chat session.
package conversation

import (
	"github.com/google/uuid"
	"github.com/klemjul/studybuddy/internal/llm"
)

// DefaultDirective is the system instruction defining the assistant persona.
const DefaultDirective = "You are Study Buddy, a friendly and professional learning assistant. " +
	"Your task is to help students understand various subjects, answer questions, and provide study advice. " +
	"Explain concepts in a clear and understandable way, and give examples when appropriate. " +
	"Maintain a patient and encouraging attitude."

// Store is the single source of truth for a session transcript. The first
// message is always the hidden system directive. A Store is owned by one
// session and is not safe for concurrent use.
type Store struct {
	id        string
	directive string
	messages  []llm.Message
}

// New returns an empty store bound to directive. Call Initialize before use.
func New(directive string) *Store {
	if directive == "" {
		directive = DefaultDirective
	}
	return &Store{directive: directive}
}

// Initialize seeds the system message when the store is empty. It is a no-op
// otherwise.
func (s *Store) Initialize() {
	if len(s.messages) > 0 {
		return
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.messages = append(s.messages, llm.Message{
		Role:    llm.System,
		Content: s.directive,
		Hidden:  true,
	})
}

// Append adds a message at the end of the transcript.
func (s *Store) Append(role llm.MessageRole, content string) {
	s.messages = append(s.messages, llm.Message{Role: role, Content: content})
}

// Snapshot returns a copy of the full transcript, system message included.
func (s *Store) Snapshot() []llm.Message {
	snapshot := make([]llm.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Visible returns the messages that are rendered to the user, in order.
func (s *Store) Visible() []llm.Message {
	var visible []llm.Message
	for _, msg := range s.messages {
		if !msg.Hidden {
			visible = append(visible, msg)
		}
	}
	return visible
}

// Reset discards the transcript, starts a new session id and re-seeds the
// system message. It does not cancel a turn that is still streaming.
func (s *Store) Reset() {
	s.messages = nil
	s.id = uuid.NewString()
	s.Initialize()
}

func (s *Store) ID() string        { return s.id }
func (s *Store) Directive() string { return s.directive }
func (s *Store) Len() int          { return len(s.messages) }
