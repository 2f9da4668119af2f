package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type ollamaChatClient interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

type llmClientOllama struct {
	client ollamaChatClient
	opts   LLMClientOptions
}

func newOllamaClient(localEndpoint url.URL, opts LLMClientOptions) *llmClientOllama {
	return &llmClientOllama{
		client: api.NewClient(&localEndpoint, http.DefaultClient),
		opts:   opts,
	}
}

func (ai *llmClientOllama) Send(ctx context.Context, messages []Message) (*LLMSendResponse, error) {
	stream := ai.chat(ctx, messages)
	var fullResult string
	for event := range stream {
		switch event.Type {
		case LLMStreamEventTypeMessage:
			fullResult += event.Content
		case LLMStreamEventTypeComplete:
			return &LLMSendResponse{
				Content: fullResult,
				Usage:   event.Usage,
			}, nil
		case LLMStreamEventTypeError:
			return nil, fmt.Errorf("ollama error: %s", event.Content)
		}
	}
	return &LLMSendResponse{
		Content: fullResult,
	}, nil
}

func (ai *llmClientOllama) Stream(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	return ai.chat(ctx, messages)
}

func (ai *llmClientOllama) chat(ctx context.Context, messages []Message) <-chan LLMStreamEvent {
	out := make(chan LLMStreamEvent)
	stream := true
	go func() {
		defer close(out)

		var full strings.Builder
		completed := false
		err := ai.client.Chat(ctx, &api.ChatRequest{
			Model:    ai.opts.Model,
			Messages: ai.toOllamaMessages(messages),
			Stream:   &stream,
			Options: map[string]any{
				"temperature": ai.opts.Temperature,
				"num_predict": ai.opts.MaxTokens,
			},
		}, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				full.WriteString(resp.Message.Content)
				if !emit(ctx, out, LLMStreamEvent{Content: resp.Message.Content, Type: LLMStreamEventTypeMessage}) {
					return ctx.Err()
				}
			}
			if resp.Done {
				completed = true
				emit(ctx, out, LLMStreamEvent{
					Type:    LLMStreamEventTypeComplete,
					Content: full.String(),
					Usage: LLMTokenUsage{
						InputTokens:  int64(resp.PromptEvalCount),
						OutputTokens: int64(resp.EvalCount),
					},
				})
			}
			return nil
		})

		if err != nil && !completed {
			emit(ctx, out, LLMStreamEvent{
				Type:    LLMStreamEventTypeError,
				Content: err.Error(),
			})
		}
	}()
	return out
}

func (ai *llmClientOllama) toOllamaMessages(messages []Message) []api.Message {
	var ollamaMessages []api.Message
	for _, msg := range messages {
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return ollamaMessages
}
