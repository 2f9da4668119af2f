package llm

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// GROQ_BASE_URL is Groq's OpenAI-compatible endpoint.
const GROQ_BASE_URL = "https://api.groq.com/openai/v1"

type llmClientGroq struct {
	client *goopenai.Client
	opts   LLMClientOptions
}

func newGroqClient(apiKey string, opts LLMClientOptions) *llmClientGroq {
	config := goopenai.DefaultConfig(apiKey)
	config.BaseURL = GROQ_BASE_URL
	return newGroqClientWithConfig(config, opts)
}

func newGroqClientWithConfig(config goopenai.ClientConfig, opts LLMClientOptions) *llmClientGroq {
	return &llmClientGroq{
		client: goopenai.NewClientWithConfig(config),
		opts:   opts,
	}
}

func (ai *llmClientGroq) toGroqMessages(messages []Message) []goopenai.ChatCompletionMessage {
	var groqMessages []goopenai.ChatCompletionMessage
	for _, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case System:
			role = goopenai.ChatMessageRoleSystem
		case Assistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		groqMessages = append(groqMessages, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return groqMessages
}

func (ai *llmClientGroq) request(messages []Message, stream bool) goopenai.ChatCompletionRequest {
	temperature := float32(ai.opts.Temperature)
	// go-openai omits a zero temperature, which the API reads as its default
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	return goopenai.ChatCompletionRequest{
		Model:       ai.opts.Model,
		Messages:    ai.toGroqMessages(messages),
		Temperature: temperature,
		MaxTokens:   ai.opts.MaxTokens,
		Stream:      stream,
	}
}

func (ai *llmClientGroq) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	res, err := ai.client.CreateChatCompletion(ctx, ai.request(messages, false))
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return &LLMSendResponse{}, nil
	}

	return &LLMSendResponse{
		Content: res.Choices[0].Message.Content,
		Usage: LLMTokenUsage{
			InputTokens:  int64(res.Usage.PromptTokens),
			OutputTokens: int64(res.Usage.CompletionTokens),
		},
	}, nil
}

func (ai *llmClientGroq) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)

	go func() {
		defer close(out)

		stream, err := ai.client.CreateChatCompletionStream(ctx, ai.request(messages, true))
		if err != nil {
			emit(ctx, out, LLMStreamEvent{Type: LLMStreamEventTypeError, Content: err.Error()})
			return
		}
		defer stream.Close()

		var full strings.Builder
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				emit(ctx, out, LLMStreamEvent{Type: LLMStreamEventTypeError, Content: err.Error()})
				return
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

		emit(ctx, out, LLMStreamEvent{
			Type:    LLMStreamEventTypeComplete,
			Content: full.String(),
		})
	}()

	return out
}
