package llm

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

type LLMTokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

type LLMSendResponse struct {
	Content string
	Usage   LLMTokenUsage
}

type LLMStreamEventType string

const (
	LLMStreamEventTypeMessage  LLMStreamEventType = "content"
	LLMStreamEventTypeComplete LLMStreamEventType = "complete"
	LLMStreamEventTypeError    LLMStreamEventType = "error"
)

// LLMStreamEvent is one item of a streamed completion. Message events carry a
// non-empty text delta, the complete event carries the full text when the
// provider reports it, the error event carries the failure message.
type LLMStreamEvent struct {
	Content string
	Usage   LLMTokenUsage
	Type    LLMStreamEventType
}

type LLMClient interface {
	Send(ctx context.Context, messages []Message) (*LLMSendResponse, error)
	// Stream returns a channel that is closed once the provider is done.
	// At most one complete or error event is sent, always last.
	Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent
}

type LLMProvider string

const (
	LLMProviderGroq      LLMProvider = "groq"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderOllama    LLMProvider = "ollama"
)

var LLMProviders = []LLMProvider{LLMProviderGroq, LLMProviderOpenAI, LLMProviderAnthropic, LLMProviderOllama}

// DefaultModel is the model used for provider when none is configured.
func DefaultModel(provider LLMProvider) string {
	switch provider {
	case LLMProviderGroq:
		return DEFAULT_MODEL
	case LLMProviderOpenAI:
		return DEFAULT_OPENAI_MODEL
	case LLMProviderAnthropic:
		return DEFAULT_ANTHROPIC_MODEL
	case LLMProviderOllama:
		return DEFAULT_OLLAMA_MODEL
	default:
		return ""
	}
}

const (
	DEFAULT_MODEL           = "llama-3.3-70b-versatile"
	DEFAULT_OPENAI_MODEL    = "gpt-4o-mini"
	DEFAULT_ANTHROPIC_MODEL = "claude-3-5-haiku-latest"
	DEFAULT_OLLAMA_MODEL    = "llama3.2"
	DEFAULT_TEMPERATURE     = 0.7
	DEFAULT_MAX_TOKENS      = 2048

	ENV_GROQ_API_KEY      = "GROQ_API_KEY"
	ENV_OPENAI_API_KEY    = "OPENAI_API_KEY"
	ENV_ANTHROPIC_API_KEY = "ANTHROPIC_API_KEY"
	ENV_OLLAMA_ENDPOINT   = "OLLAMA_ENDPOINT"
)

const credentialHint = "Local development: set it in a .env file or export it.\nManaged secrets: add it to .studybuddy/secrets.toml."

type LLMClientOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// CredentialLookup resolves a secret by name.
type CredentialLookup func(key string) (string, bool)

// NewClient builds the client handle for provider. It is created once and
// reused read-only for every turn.
func NewClient(provider LLMProvider, opts LLMClientOptions, lookup CredentialLookup) (LLMClient, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	switch provider {
	case LLMProviderGroq:
		apiKey, err := requireCredential(lookup, ENV_GROQ_API_KEY)
		if err != nil {
			return nil, err
		}
		return newGroqClient(apiKey, opts), nil
	case LLMProviderOpenAI:
		apiKey, err := requireCredential(lookup, ENV_OPENAI_API_KEY)
		if err != nil {
			return nil, err
		}
		return newOpenAIClient(apiKey, opts), nil
	case LLMProviderAnthropic:
		apiKey, err := requireCredential(lookup, ENV_ANTHROPIC_API_KEY)
		if err != nil {
			return nil, err
		}
		return newAnthropicClient(apiKey, opts), nil
	case LLMProviderOllama:
		ollamaEndpoint, err := requireCredential(lookup, ENV_OLLAMA_ENDPOINT)
		if err != nil {
			return nil, err
		}
		localEndpoint, err := url.Parse(ollamaEndpoint)
		if err != nil {
			return nil, fmt.Errorf("%s URL is invalid: %v", ENV_OLLAMA_ENDPOINT, err)
		}
		return newOllamaClient(*localEndpoint, opts), nil
	default:
		return nil, fmt.Errorf("%s: invalid provider", provider)
	}
}

// emit sends event on out unless ctx is done first. It reports whether the
// event was delivered; provider goroutines stop streaming when it was not.
func emit(ctx context.Context, out chan<- LLMStreamEvent, event LLMStreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func requireCredential(lookup CredentialLookup, key string) (string, error) {
	value, exists := lookup(key)
	if !exists || value == "" {
		return "", &ConfigurationError{Key: key, Hint: credentialHint}
	}
	return value, nil
}
