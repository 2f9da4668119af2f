package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiChatStream interface {
	Next() bool
	Current() openai.ChatCompletionChunk
	Err() error
	Close() error
}

type openaiChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) openaiChatStream
}

// openaiCompletions adapts the SDK service to openaiChatClient so tests can
// replace the transport.
type openaiCompletions struct {
	service *openai.ChatCompletionService
}

func (c openaiCompletions) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	return c.service.New(ctx, body, opts...)
}

func (c openaiCompletions) NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) openaiChatStream {
	return c.service.NewStreaming(ctx, body, opts...)
}

type llmClientOpenAi struct {
	client openaiChatClient
	opts   LLMClientOptions
}

func newOpenAIClient(openAIKey string, opts LLMClientOptions, reqOpts ...option.RequestOption) *llmClientOpenAi {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(openAIKey)}, reqOpts...)...)
	return &llmClientOpenAi{
		client: openaiCompletions{service: &client.Chat.Completions},
		opts:   opts,
	}
}

func (ai *llmClientOpenAi) toOpenAiMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	var openAiMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case User:
			openAiMessages = append(openAiMessages, openai.UserMessage(msg.Content))
		case Assistant:
			openAiMessages = append(openAiMessages, openai.AssistantMessage(msg.Content))
		case System:
			openAiMessages = append(openAiMessages, openai.SystemMessage(msg.Content))
		default:
			openAiMessages = append(openAiMessages, openai.UserMessage(msg.Content))
		}
	}
	return openAiMessages
}

func (ai *llmClientOpenAi) params(messages []Message) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:               ai.opts.Model,
		Messages:            ai.toOpenAiMessages(messages),
		Temperature:         openai.Float(ai.opts.Temperature),
		MaxCompletionTokens: openai.Int(int64(ai.opts.MaxTokens)),
		N:                   openai.Int(1),
	}
}

func (ai *llmClientOpenAi) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	res, err := ai.client.New(ctx, ai.params(messages))
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return &LLMSendResponse{}, nil
	}

	return &LLMSendResponse{
		Content: res.Choices[0].Message.Content,
		Usage: LLMTokenUsage{
			InputTokens:  res.Usage.PromptTokens,
			OutputTokens: res.Usage.CompletionTokens,
		},
	}, nil
}

func (ai *llmClientOpenAi) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)

	go func() {
		defer close(out)
		params := ai.params(messages)
		params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
		aiStream := ai.client.NewStreaming(ctx, params)
		defer aiStream.Close()

		var full strings.Builder
		var usage LLMTokenUsage
		for aiStream.Next() {
			chunk := aiStream.Current()
			// usage arrives on the final chunk only
			if chunk.Usage.PromptTokens != 0 || chunk.Usage.CompletionTokens != 0 {
				usage = LLMTokenUsage{
					InputTokens:  chunk.Usage.PromptTokens,
					OutputTokens: chunk.Usage.CompletionTokens,
				}
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				full.WriteString(chunk.Choices[0].Delta.Content)
				if !emit(ctx, out, LLMStreamEvent{
					Type:    LLMStreamEventTypeMessage,
					Content: chunk.Choices[0].Delta.Content,
				}) {
					return
				}
			}
		}

		if err := aiStream.Err(); err != nil {
			emit(ctx, out, LLMStreamEvent{
				Type:    LLMStreamEventTypeError,
				Content: err.Error(),
			})
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
