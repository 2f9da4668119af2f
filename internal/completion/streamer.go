// Package completion turns a conversation snapshot into an assistant reply,
// one streamed fragment at a time.
package completion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/klemjul/studybuddy/internal/llm"
)

var (
	ErrInvalidSnapshot   = errors.New("snapshot must start with the system message")
	ErrTurnNotFinished   = errors.New("turn is still streaming")
	ErrTurnAlreadyClosed = errors.New("turn was already committed")
)

// Conversation is the part of the conversation store a turn needs.
type Conversation interface {
	Snapshot() []llm.Message
	Append(role llm.MessageRole, content string)
}

// RenderFunc is called once per fragment with the fragment itself and the
// text accumulated so far, fragment included.
type RenderFunc func(fragment string, partial string)

// Streamer opens turns against one completion client. The client is built
// once at startup and shared read-only by every turn.
type Streamer struct {
	client llm.LLMClient
}

func NewStreamer(client llm.LLMClient) *Streamer {
	return &Streamer{client: client}
}

// Begin opens a streaming completion for messages. The first message must be
// the system directive.
func (s *Streamer) Begin(ctx context.Context, messages []llm.Message) (*Turn, error) {
	if len(messages) == 0 || messages[0].Role != llm.System {
		return nil, ErrInvalidSnapshot
	}
	slog.Debug("turn started",
		"messages", len(messages),
		"estimated_prompt_tokens", llm.RoughEstimateMessagesTokens(messages))

	return &Turn{
		events:  s.client.Stream(ctx, messages),
		state:   AwaitingFirstFragment,
		started: time.Now(),
	}, nil
}

// Run plays a whole turn: it streams a reply to the current snapshot, calls
// render for every fragment and commits the reply on success. On failure
// nothing is committed and the error is a *llm.CompletionError.
func (s *Streamer) Run(ctx context.Context, conv Conversation, render RenderFunc) (string, error) {
	turn, err := s.Begin(ctx, conv.Snapshot())
	if err != nil {
		return "", err
	}
	for turn.Next() {
		if render != nil {
			render(turn.Fragment(), turn.Text())
		}
	}
	msg, err := turn.Commit(conv)
	if err != nil {
		return turn.Text(), err
	}
	return msg.Content, nil
}

// Turn is a finite, non-restartable sequence of fragments. Use it like a
// bufio.Scanner: call Next until it returns false, then check Err.
type Turn struct {
	events   <-chan llm.LLMStreamEvent
	state    State
	fragment string
	text     strings.Builder
	usage    llm.LLMTokenUsage
	err      error
	started  time.Time
}

// Next advances to the next non-empty fragment. It returns false once the
// stream has completed or failed.
func (t *Turn) Next() bool {
	if t.state != AwaitingFirstFragment && t.state != Streaming {
		return false
	}
	for {
		event, ok := <-t.events
		if !ok {
			t.finish()
			return false
		}
		switch event.Type {
		case llm.LLMStreamEventTypeMessage:
			if event.Content == "" {
				continue
			}
			t.fragment = event.Content
			t.text.WriteString(event.Content)
			t.state = Streaming
			return true
		case llm.LLMStreamEventTypeComplete:
			t.usage = event.Usage
			t.finish()
			return false
		case llm.LLMStreamEventTypeError:
			t.fail(event.Content)
			return false
		}
	}
}

func (t *Turn) finish() {
	t.fragment = ""
	t.state = Done
}

func (t *Turn) fail(message string) {
	t.fragment = ""
	t.state = Failed
	t.err = &llm.CompletionError{
		Message: message,
		Partial: t.text.String(),
		Err:     errors.New(message),
	}
	slog.Warn("turn failed",
		"error", message,
		"partial_chars", t.text.Len(),
		"elapsed", time.Since(t.started))
}

// Fragment is the delta returned by the last successful Next.
func (t *Turn) Fragment() string { return t.fragment }

// Text is every fragment received so far, concatenated in order.
func (t *Turn) Text() string { return t.text.String() }

func (t *Turn) State() State { return t.state }

func (t *Turn) Usage() llm.LLMTokenUsage { return t.usage }

// Err is the *llm.CompletionError of a failed turn, nil otherwise.
func (t *Turn) Err() error { return t.err }

// Commit appends the full reply to conv as an assistant message. It only
// succeeds once, after the stream ended normally; a failed turn returns its
// error and leaves conv untouched.
func (t *Turn) Commit(conv Conversation) (llm.Message, error) {
	switch t.state {
	case Failed:
		return llm.Message{}, t.err
	case Committed:
		return llm.Message{}, ErrTurnAlreadyClosed
	case Done:
	default:
		return llm.Message{}, ErrTurnNotFinished
	}

	msg := llm.Message{Role: llm.Assistant, Content: t.text.String()}
	conv.Append(msg.Role, msg.Content)
	t.state = Committed
	slog.Debug("turn committed",
		"chars", len(msg.Content),
		"input_tokens", t.usage.InputTokens,
		"output_tokens", t.usage.OutputTokens,
		"elapsed", time.Since(t.started))
	return msg, nil
}
