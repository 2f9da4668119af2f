package llm

type MessageRole string

const (
	Assistant MessageRole = "assistant"
	User      MessageRole = "user"
	System    MessageRole = "system"
)

// Message is one role-tagged turn of a conversation. Hidden messages are
// sent to the provider but never rendered.
type Message struct {
	Role    MessageRole
	Content string
	Hidden  bool
}
