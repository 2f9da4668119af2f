package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type openaiMockClient struct {
	mock.Mock
}

func (m *openaiMockClient) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (res *openai.ChatCompletion, err error) {
	args := m.Called(ctx, body, opts)
	resVal := args.Get(0)
	if resVal == nil {
		return nil, args.Error(1)
	}
	return resVal.(*openai.ChatCompletion), args.Error(1)
}

func (m *openaiMockClient) NewStreaming(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (stream openaiChatStream) {
	args := m.Called(ctx, body, opts)

	return args.Get(0).(openaiChatStream)
}

type openaiMockStream struct {
	mock.Mock
}

func (m *openaiMockStream) Next() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *openaiMockStream) Current() openai.ChatCompletionChunk {
	args := m.Called()
	return args.Get(0).(openai.ChatCompletionChunk)
}

func (m *openaiMockStream) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *openaiMockStream) Err() error {
	args := m.Called()
	return args.Error(0)
}

func newOpenaiMockClient(model string) *llmClientOpenAi {
	mockClient := new(openaiMockClient)

	return &llmClientOpenAi{
		client: mockClient,
		opts:   LLMClientOptions{Model: model, Temperature: 0.7, MaxTokens: 2048},
	}
}

func expectedOpenaiParams(model string, messages ...openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		Temperature:         openai.Float(0.7),
		MaxCompletionTokens: openai.Int(2048),
		N:                   openai.Int(1),
	}
}

func expectedOpenaiStreamParams(model string, messages ...openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := expectedOpenaiParams(model, messages...)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}
	return params
}

func contentChunk(content string) openai.ChatCompletionChunk {
	return openai.ChatCompletionChunk{
		Choices: []openai.ChatCompletionChunkChoice{
			{Delta: openai.ChatCompletionChunkChoiceDelta{
				Content: content,
			}},
		},
	}
}

func TestSendOpenai_Success(t *testing.T) {
	messages := []Message{
		{Role: System, Content: "This is a system message", Hidden: true},
		{Role: User, Content: "Hello"},
		{Role: Assistant, Content: "Hi, how can I help?"},
	}
	mockClient := newOpenaiMockClient("openai-model")
	mockClient.client.(*openaiMockClient).
		On("New", t.Context(), expectedOpenaiParams("openai-model",
			openai.SystemMessage("This is a system message"),
			openai.UserMessage("Hello"),
			openai.AssistantMessage("Hi, how can I help?"),
		), mock.Anything).
		Return(&openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Content: "Open ai response content",
					},
				},
			},
			Usage: openai.CompletionUsage{
				PromptTokens:     50,
				CompletionTokens: 100,
			},
		}, nil)

	res, err := mockClient.Send(t.Context(), messages)

	assert.Nil(t, err)
	assert.Equal(t, &LLMSendResponse{
		Content: "Open ai response content",
		Usage: LLMTokenUsage{
			InputTokens:  50,
			OutputTokens: 100,
		},
	}, res)
}

func TestSendOpenai_Error(t *testing.T) {
	messages := []Message{
		{Role: User, Content: "Hello"},
	}
	mockClient := newOpenaiMockClient("openai-model")
	mockClient.client.(*openaiMockClient).
		On("New", t.Context(), expectedOpenaiParams("openai-model", openai.UserMessage("Hello")), mock.Anything).
		Return(nil, errors.New("failed to send message"))

	res, err := mockClient.Send(t.Context(), messages)

	assert.EqualError(t, err, "failed to send message")
	assert.Nil(t, res)
}

func TestSendStream_Success(t *testing.T) {
	messages := []Message{
		{Role: User, Content: "Hello"},
	}
	mockClient := newOpenaiMockClient("openai-model")
	mockStream := new(openaiMockStream)
	mockClient.client.(*openaiMockClient).
		On("NewStreaming", t.Context(), expectedOpenaiStreamParams("openai-model", openai.UserMessage("Hello")), mock.Anything).
		Return(mockStream)

	mockStream.On("Next").Return(true).Once()
	mockStream.On("Current").Return(contentChunk("hello ")).Once()
	mockStream.On("Next").Return(true).Once()
	mockStream.On("Current").Return(contentChunk("back")).Once()
	mockStream.On("Next").Return(true).Once()
	mockStream.On("Current").Return(contentChunk("")).Once()
	mockStream.On("Next").Return(true).Once()
	mockStream.On("Current").Return(openai.ChatCompletionChunk{
		Usage: openai.CompletionUsage{
			PromptTokens:     15,
			CompletionTokens: 25,
		},
	}).Once()
	mockStream.On("Next").Return(false).Once()
	mockStream.On("Err").Return(nil)
	mockStream.On("Close").Return(nil)

	stream := mockClient.Stream(t.Context(), messages)

	var events []LLMStreamEvent

	for event := range stream {
		events = append(events, event)
	}

	require.Len(t, events, 3)
	assert.Equal(t, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: "hello "}, events[0])
	assert.Equal(t, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: "back"}, events[1])

	assert.Equal(t, LLMStreamEvent{
		Content: "hello back",
		Type:    LLMStreamEventTypeComplete,
		Usage: LLMTokenUsage{
			InputTokens:  15,
			OutputTokens: 25,
		},
	}, events[2])

	mockStream.AssertExpectations(t)
}

func TestSendStream_Error(t *testing.T) {
	messages := []Message{
		{Role: User, Content: "Hello"},
	}
	mockClient := newOpenaiMockClient("openai-model")
	mockStream := new(openaiMockStream)
	mockClient.client.(*openaiMockClient).
		On("NewStreaming", t.Context(), expectedOpenaiStreamParams("openai-model", openai.UserMessage("Hello")), mock.Anything).
		Return(mockStream)
	mockStream.On("Next").Return(true).Once()
	mockStream.On("Current").Return(contentChunk("hello")).Once()
	mockStream.On("Next").Return(false).Once()
	mockStream.On("Err").Return(errors.New("failed to stream content"))
	mockStream.On("Close").Return(nil)

	stream := mockClient.Stream(t.Context(), messages)

	var events []LLMStreamEvent

	for event := range stream {
		events = append(events, event)
	}

	require.Len(t, events, 2)
	assert.Equal(t, LLMStreamEvent{
		Type:    LLMStreamEventTypeMessage,
		Content: "hello",
	}, events[0])

	assert.Equal(t, LLMStreamEvent{
		Type:    LLMStreamEventTypeError,
		Content: "failed to stream content",
	}, events[1])

	mockStream.AssertExpectations(t)
}

func TestSendStream_HttpSuccess(t *testing.T) {
	messages := []Message{
		{Role: System, Content: "be brief", Hidden: true},
		{Role: User, Content: "Hello"},
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
			return
		}

		chunks := []string{
			`data: {"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"hello"},"finish_reason":null}]}` + "\n\n",
			`data: {"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}` + "\n\n",
			`data: {"id":"chatcmpl-1","choices":[{"index":0,"delta":{"content":"!"},"finish_reason":"stop"}]}` + "\n\n",
			`data: {"id":"chatcmpl-1","choices":[],"usage":{"prompt_tokens":5,"completion_tokens":8,"total_tokens":13}}` + "\n\n",
			"data: [DONE]\n\n",
		}

		for _, chunk := range chunks {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	defer ts.Close()

	client := newOpenAIClient("", LLMClientOptions{Model: "model", Temperature: 0.7, MaxTokens: 64},
		option.WithHTTPClient(ts.Client()), option.WithBaseURL(ts.URL))

	var events []LLMStreamEvent
	for event := range client.Stream(t.Context(), messages) {
		events = append(events, event)
	}

	require.Len(t, events, 4)
	assert.Equal(t, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: "hello"}, events[0])
	assert.Equal(t, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: " world"}, events[1])
	assert.Equal(t, LLMStreamEvent{Type: LLMStreamEventTypeMessage, Content: "!"}, events[2])
	assert.Equal(t, LLMStreamEvent{
		Type:    LLMStreamEventTypeComplete,
		Content: "hello world!",
		Usage:   LLMTokenUsage{InputTokens: 5, OutputTokens: 8},
	}, events[3])
}
