package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type llmClientAnthropic struct {
	client anthropic.Client
	opts   LLMClientOptions
}

func newAnthropicClient(apiKey string, opts LLMClientOptions, reqOpts ...option.RequestOption) *llmClientAnthropic {
	return &llmClientAnthropic{
		client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...),
		opts:   opts,
	}
}

// toAnthropicParams moves system messages into the request's System field;
// the Messages API only accepts user and assistant turns.
func (ai *llmClientAnthropic) toAnthropicParams(messages []Message) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var conv []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case System:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case Assistant:
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return anthropic.MessageNewParams{
		Model:       anthropic.Model(ai.opts.Model),
		MaxTokens:   int64(ai.opts.MaxTokens),
		Temperature: anthropic.Float(ai.opts.Temperature),
		System:      system,
		Messages:    conv,
	}
}

func (ai *llmClientAnthropic) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	msg, err := ai.client.Messages.New(ctx, ai.toAnthropicParams(messages))
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(tb.Text)
		}
	}
	return &LLMSendResponse{
		Content: content.String(),
		Usage: LLMTokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

func (ai *llmClientAnthropic) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)

	go func() {
		defer close(out)
		stream := ai.client.Messages.NewStreaming(ctx, ai.toAnthropicParams(messages))
		defer stream.Close()

		var full strings.Builder
		var usage LLMTokenUsage
		for stream.Next() {
			switch ev := stream.Current().AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.InputTokens = ev.Message.Usage.InputTokens
			case anthropic.MessageDeltaEvent:
				usage.OutputTokens = ev.Usage.OutputTokens
			case anthropic.ContentBlockDeltaEvent:
				delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
				if !ok || delta.Text == "" {
					continue
				}
				full.WriteString(delta.Text)
				if !emit(ctx, out, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: delta.Text}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			emit(ctx, out, LLMStreamEvent{Type: LLMStreamEventTypeError, Content: err.Error()})
			return
		}

		emit(ctx, out, LLMStreamEvent{
			Type:    LLMStreamEventTypeComplete,
			Content: full.String(),
			Usage:   usage,
		})
	}()

	return out
}
