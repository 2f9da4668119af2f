package llm

import "fmt"

// ConfigurationError reports a credential or endpoint that could not be
// resolved. It is fatal: no completion call is attempted.
type ConfigurationError struct {
	Key  string
	Hint string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not set", e.Key)
}

// CompletionError is any transport, authentication or service failure
// raised while a completion is streaming. Partial holds the text received
// before the failure; it is never committed to the conversation.
type CompletionError struct {
	Message string
	Partial string
	Err     error
}

func (e *CompletionError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("completion failed after %d chars: %s", len(e.Partial), e.Message)
	}
	return fmt.Sprintf("completion failed: %s", e.Message)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
