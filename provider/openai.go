package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/samber/lo"
)

const (
	DefaultModel = "gpt-4o-mini"
	MaxTimeout   = 15 * time.Second
)

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

// OpenAI calls the chat completions API. It never retries: a failed call is
// reported to the caller, which owns the fallback.
type OpenAI struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	temperature float64
}

// NewOpenAI builds the live provider. An empty API key yields a provider that
// reports ErrUnavailable on every call.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	p := &OpenAI{
		model:       lo.Ternary(cfg.Model == "", DefaultModel, cfg.Model),
		timeout:     cfg.Timeout,
		temperature: lo.Ternary(cfg.Temperature == 0, 0.7, cfg.Temperature),
	}
	if p.timeout <= 0 || p.timeout > MaxTimeout {
		p.timeout = MaxTimeout
	}

	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return p
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(p.timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	p.client = &client
	return p
}

func (p *OpenAI) Configured() bool {
	return p != nil && p.client != nil
}

func (p *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if !p.Configured() {
		return "", ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    chatMessages(req.Messages),
		Temperature: openai.Float(p.temperature),
	}
	if req.Shape == ShapeJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Err: errors.New("no choices returned")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Err: errors.New("assistant returned an empty message")}
	}
	return text, nil
}

func chatMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	return lo.FilterMap(messages, func(m Message, _ int) (openai.ChatCompletionMessageParamUnion, bool) {
		switch m.Role {
		case "system":
			return openai.SystemMessage(m.Content), true
		case "assistant":
			return openai.AssistantMessage(m.Content), true
		case "user":
			return openai.UserMessage(m.Content), true
		}
		return openai.ChatCompletionMessageParamUnion{}, false
	})
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.StatusCode, Err: err}
	}
	return &Error{Err: err}
}
