package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithResilienceExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL, apiKey, model string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Complete sends one system+user exchange and returns the assistant
// text verbatim.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	}

	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", request, &response, "chat")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.chat", call, classifyOpenAIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai chat", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty choices in response")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// FieldExtractor implements the bill field extraction contract on top
// of the chat client. Input text beyond maxInputBytes is truncated so
// oversized bills never exceed the service's input window.
type FieldExtractor struct {
	client        *Client
	maxInputBytes int
}

func NewFieldExtractor(client *Client, maxInputBytes int) *FieldExtractor {
	if maxInputBytes <= 0 {
		maxInputBytes = 128 * 1024
	}
	return &FieldExtractor{client: client, maxInputBytes: maxInputBytes}
}

func (e *FieldExtractor) ExtractFields(ctx context.Context, text string) (map[string]any, error) {
	if len(text) > e.maxInputBytes {
		text = text[:e.maxInputBytes]
	}

	raw, err := e.client.Complete(ctx, extractionSystemPrompt, text)
	if err != nil {
		return nil, err
	}

	fields, err := domain.ParseBillFields(raw)
	if err != nil {
		return nil, fmt.Errorf("extraction response rejected: %w", err)
	}
	return fields, nil
}
